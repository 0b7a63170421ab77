package casregistry

import "creed.space/vcp/storage"

func init() {
	MustRegister(Backend{
		Name:        "memory",
		Description: "In-process CAS (not persisted)",
		Open: func(map[string]string) (storage.CAS, func() error, error) {
			return storage.NewMemory(), nil, nil
		},
	})
}
