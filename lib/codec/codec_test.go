package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

var cdc = Protobuf{}

func TestProtobuf(t *testing.T) {
	v, err := structpb.NewStruct(map[string]any{
		"key": "value",
		"sum": float64(10),
	})
	require.NoError(t, err)
	bz, err := cdc.Marshal(v)
	require.NoError(t, err)
	got := &structpb.Struct{}
	require.NoError(t, cdc.Unmarshal(bz, got))
	require.Equal(t, v.Fields["key"].GetStringValue(), got.Fields["key"].GetStringValue())
}

func TestProtobufAny(t *testing.T) {
	v, err := structpb.NewStruct(map[string]any{"foo": "bar"})
	require.NoError(t, err)
	any, err := cdc.ToAny(v)
	require.NoError(t, err)
	msg, err := cdc.FromAny(any)
	require.NoError(t, err)
	got, ok := msg.(*structpb.Struct)
	require.True(t, ok)
	require.Equal(t, "bar", got.Fields["foo"].GetStringValue())
}
