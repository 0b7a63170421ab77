package archive_test

import (
	"archive/tar"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"creed.space/vcp/storage"
	"creed.space/vcp/storage/archive"
	"creed.space/vcp/storage/localfs"
)

func TestExportIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	id1, err := cas.Put([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := cas.Put([]byte("world"))
	if err != nil {
		t.Fatal(err)
	}

	var outA bytes.Buffer
	if err := archive.Export(&outA, cas, []cid.Cid{id2, id1}, archive.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}
	var outB bytes.Buffer
	if err := archive.Export(&outB, cas, []cid.Cid{id1, id2}, archive.ExportOptions{IncludeIndex: true}); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatal("expected deterministic archive bytes")
	}
}

func TestImportRoundTrip(t *testing.T) {
	src := storage.NewMemory()
	payload := []byte("payload")
	id, err := src.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := archive.Export(&buf, src, []cid.Cid{id}, archive.ExportOptions{
		IncludeIndex: true,
		Labels:       map[string]cid.Cid{"constitution": id},
	}); err != nil {
		t.Fatal(err)
	}

	dst := storage.NewMemory()
	if err := archive.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got, err := dst.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch after round trip")
	}
}

func TestImportRejectsUnknownEntry(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("stray")
	if err := tw.WriteHeader(&tar.Header{Name: "stray.txt", Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(content)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	err := archive.Import(bytes.NewReader(buf.Bytes()), storage.NewMemory())
	if err == nil || !strings.Contains(err.Error(), "unknown entry") {
		t.Fatalf("expected unknown entry error, got %v", err)
	}

	// The same archive imports cleanly when unknown entries are ignored.
	if err := archive.ImportWithOptions(bytes.NewReader(buf.Bytes()), storage.NewMemory(), archive.ImportOptions{IgnoreUnknown: true}); err != nil {
		t.Fatalf("ImportWithOptions: %v", err)
	}
}

func TestImportRejectsCorruptedObject(t *testing.T) {
	src := storage.NewMemory()
	id, err := src.Put([]byte("original"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	corrupted := []byte("not the original")
	if err := tw.WriteHeader(&tar.Header{
		Name:     "objects/" + id.String(),
		Mode:     0o644,
		Size:     int64(len(corrupted)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(corrupted)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	if err := archive.Import(bytes.NewReader(buf.Bytes()), storage.NewMemory()); err != storage.ErrCIDMismatch {
		t.Fatalf("got %v want ErrCIDMismatch", err)
	}
}
