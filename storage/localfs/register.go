package localfs

import (
	"fmt"

	"creed.space/vcp/storage"
	"creed.space/vcp/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Open: func(config map[string]string) (storage.CAS, func() error, error) {
			dir := config["dir"]
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs: missing \"dir\" config value")
			}
			cas, err := New(dir)
			return cas, nil, err
		},
	})
}
