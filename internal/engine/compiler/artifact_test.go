package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/version"
)

func TestArtifactRoundTrip(t *testing.T) {
	in := &Artifact{
		EngineID:     version.EngineID,
		HostTriple:   "linux/amd64",
		Features:     api.CoreFeaturesV2,
		ModuleInfo:   []byte("module-info"),
		FunctionCode: [][]byte{{0xc3}, {0x90, 0xc3}, {}},
	}

	var buf bytes.Buffer
	require.NoError(t, in.Serialize(&buf))

	out, err := DeserializeArtifact(&buf, api.CoreFeaturesV2, "linux/amd64")
	require.NoError(t, err)
	require.Equal(t, in.EngineID, out.EngineID)
	require.Equal(t, in.HostTriple, out.HostTriple)
	require.Equal(t, in.Features, out.Features)
	require.Equal(t, in.ModuleInfo, out.ModuleInfo)
	require.Equal(t, in.FunctionCode, out.FunctionCode)
}

func TestArtifactRejectsWrongFeatures(t *testing.T) {
	in := &Artifact{EngineID: version.EngineID, HostTriple: "linux/amd64", Features: api.CoreFeaturesV2}
	var buf bytes.Buffer
	require.NoError(t, in.Serialize(&buf))

	_, err := DeserializeArtifact(&buf, api.CoreFeaturesV1, "linux/amd64")
	require.Error(t, err)
}

func TestArtifactRejectsWrongHostTriple(t *testing.T) {
	in := &Artifact{EngineID: version.EngineID, HostTriple: "linux/amd64", Features: api.CoreFeaturesV2}
	var buf bytes.Buffer
	require.NoError(t, in.Serialize(&buf))

	_, err := DeserializeArtifact(&buf, api.CoreFeaturesV2, "darwin/arm64")
	require.Error(t, err)
}

func TestArtifactRejectsBadMagic(t *testing.T) {
	_, err := DeserializeArtifact(bytes.NewReader([]byte("not-an-artifact-at-all-0000000000000000000000000000000000000000000000000000000000000000000000000")), api.CoreFeaturesV2, "linux/amd64")
	require.Error(t, err)
}
