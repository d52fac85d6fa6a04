package cacheinfra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codecRecord struct {
	ID        string    `json:"id" msgpack:"id"`
	Tags      []string  `json:"tags" msgpack:"tags"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

func TestCodecs_PreserveValues(t *testing.T) {
	in := &codecRecord{
		ID:        "r-1",
		Tags:      []string{"a", "b"},
		UpdatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	for _, codec := range []Codec{MsgpackCodec{}, JSONCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Marshal(in)
			require.NoError(t, err)

			var out *codecRecord
			require.NoError(t, codec.Unmarshal(data, &out))
			require.NotNil(t, out)

			assert.Equal(t, in.ID, out.ID)
			assert.Equal(t, in.Tags, out.Tags)
			assert.True(t, in.UpdatedAt.Equal(out.UpdatedAt))
		})
	}
}

func TestCodecByName(t *testing.T) {
	codec, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, CodecMsgpack, codec.Name())

	codec, err = CodecByName(CodecJSON)
	require.NoError(t, err)
	assert.Equal(t, CodecJSON, codec.Name())

	_, err = CodecByName("xml")
	assert.ErrorContains(t, err, `unknown codec "xml"`)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, "users:", escapeGlob("users:"))
	assert.Equal(t, `a\*b\?c\[d\]\\`, escapeGlob(`a*b?c[d]\`))
}

func TestRedisConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultRedisConfig().Validate())

	cfg := DefaultRedisConfig()
	cfg.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultRedisConfig()
	cfg.Codec = "gob"
	assert.Error(t, cfg.Validate())

	cfg = DefaultRedisConfig()
	cfg.TTL = -time.Second
	assert.Error(t, cfg.Validate())
}
