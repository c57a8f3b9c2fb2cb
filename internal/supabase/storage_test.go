package supabase_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/supabase"
)

func TestObjectPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	p := supabase.ObjectPath("Hero Shot.JPG", now)

	assert.Regexp(t, regexp.MustCompile(`^products/2025/03/[0-9a-f-]{36}\.jpg$`), p)
	assert.NotEqual(t, p, supabase.ObjectPath("Hero Shot.JPG", now))
}

func TestObjectPath_NoExtension(t *testing.T) {
	p := supabase.ObjectPath("blob", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, `^products/2024/12/[0-9a-f-]{36}$`, p)
}

func TestStorageClient_GetPublicURL(t *testing.T) {
	client, err := supabase.NewStorageClient("https://abc.supabase.co/", "key", "product-images")
	require.NoError(t, err)

	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/product-images/products/2025/03/x.png",
		client.GetPublicURL("products/2025/03/x.png"))
}

func TestNewStorageClient_RequiresURL(t *testing.T) {
	_, err := supabase.NewStorageClient("", "key", "bucket")
	assert.Error(t, err)
}
