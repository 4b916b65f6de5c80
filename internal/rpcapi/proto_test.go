package rpcapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"nllbd/pkg/types"
)

func TestDescriptorRegistered(t *testing.T) {
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	require.NoError(t, err)
	assert.Equal(t, protoFile, d.ParentFile().Path())
	assert.Equal(t, "srcLang", string(fieldSrcLang.JSONName()))
	assert.True(t, fieldSources.IsList())
}

func TestRequestWireRoundTrip(t *testing.T) {
	in := types.TranslateRequest{Sources: []string{"Hello", "", "World"}, SrcLang: "eng_Latn", TgtLang: "fra_Latn"}
	b, err := proto.Marshal(encodeRequest(in))
	require.NoError(t, err)

	m := dynamicpb.NewMessage(requestDesc)
	require.NoError(t, proto.Unmarshal(b, m))
	assert.Equal(t, in, decodeRequest(m))
}

func TestDecodeRequest_AbsentFieldsAreEmpty(t *testing.T) {
	got := decodeRequest(dynamicpb.NewMessage(requestDesc))
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
	assert.Empty(t, got.SrcLang)
	assert.Empty(t, got.TgtLang)
}
