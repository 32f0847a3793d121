package storage_test

import (
	"testing"

	"github.com/haierkeys/gift-share-service/pkg/storage"
	"github.com/haierkeys/gift-share-service/pkg/storage/local_fs"
	"github.com/haierkeys/gift-share-service/pkg/storage/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeleter_Local(t *testing.T) {
	d, err := storage.NewDeleter(&storage.Config{Type: storage.LOCAL, SavePath: t.TempDir()}, nil)
	require.NoError(t, err)

	_, ok := d.(*local_fs.LocalFS)
	assert.True(t, ok)
	assert.Equal(t, "localfs", d.Name())
}

func TestNewDeleter_Media(t *testing.T) {
	d, err := storage.NewDeleter(&storage.Config{Type: storage.Media, DeleteEndpoint: "http://media/delete", UploadSecret: "x"}, nil)
	require.NoError(t, err)

	_, ok := d.(*media.Client)
	assert.True(t, ok)
}

func TestNewDeleter_Disabled(t *testing.T) {
	d, err := storage.NewDeleter(&storage.Config{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestNewDeleter_Invalid(t *testing.T) {
	_, err := storage.NewDeleter(&storage.Config{Type: "invalid"}, nil)
	assert.Error(t, err)
}
