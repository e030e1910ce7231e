package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
)

func newTestNetworkCmd() (*project.Service, *bytes.Buffer) {
	svc := project.NewService(nil, logging.NewNopLogger())
	var buf bytes.Buffer
	return svc, &buf
}

func TestNetworkCmd_CreateNodeAndView(t *testing.T) {
	svc, _ := newTestNetworkCmd()
	logger := logging.NewNopLogger()

	cmd := NewNetworkCmd(svc, logger)
	cmd.SetArgs([]string{"create-node", "--name", "net1", "--type", "Const", "--x", "1", "--y", "2"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "node_id:")

	viewCmd := NewNetworkCmd(svc, logger)
	viewCmd.SetArgs([]string{"view", "--name", "net1", "--output", "json"})
	var viewOut bytes.Buffer
	viewCmd.SetOut(&viewOut)
	require.NoError(t, viewCmd.Execute())
	assert.Contains(t, viewOut.String(), "net1")
}

func TestNetworkCmd_MoveNode(t *testing.T) {
	svc, _ := newTestNetworkCmd()
	logger := logging.NewNopLogger()

	_, err := svc.CreateNode(context.Background(), "net1", "Const", 0, 0)
	require.NoError(t, err)

	cmd := NewNetworkCmd(svc, logger)
	cmd.SetArgs([]string{"move-node", "--name", "net1", "--node-id", "1", "--x", "5", "--y", "6"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "OK:")
}

func TestNetworkCmd_MoveNode_UnknownNetwork(t *testing.T) {
	svc, _ := newTestNetworkCmd()
	logger := logging.NewNopLogger()

	cmd := NewNetworkCmd(svc, logger)
	cmd.SetArgs([]string{"move-node", "--name", "does-not-exist", "--node-id", "1"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	var out bytes.Buffer
	cmd.SetOut(&out)
	assert.Error(t, cmd.Execute())
}

func TestNetworkCmd_SelectAndDeleteSelection(t *testing.T) {
	svc, _ := newTestNetworkCmd()
	logger := logging.NewNopLogger()

	result, err := svc.CreateNode(context.Background(), "net1", "Const", 0, 0)
	require.NoError(t, err)

	selectCmd := NewNetworkCmd(svc, logger)
	selectCmd.SetArgs([]string{"select", "--name", "net1", "--ids", "1"})
	var selectOut bytes.Buffer
	selectCmd.SetOut(&selectOut)
	require.NoError(t, selectCmd.Execute())
	assert.Contains(t, selectOut.String(), "selected 1 node")

	deleteCmd := NewNetworkCmd(svc, logger)
	deleteCmd.SetArgs([]string{"delete-selection", "--name", "net1"})
	var deleteOut bytes.Buffer
	deleteCmd.SetOut(&deleteOut)
	require.NoError(t, deleteCmd.Execute())
	assert.Contains(t, deleteOut.String(), "OK:")

	view, err := svc.ViewNetwork(context.Background(), "net1")
	require.NoError(t, err)
	for _, n := range view.Nodes {
		assert.NotEqual(t, result.NodeID, n.ID)
	}
}

func TestParseNodeIDs(t *testing.T) {
	ids, err := parseNodeIDs("1,2, 3")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ids, err = parseNodeIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseNodeIDs("not-a-number")
	assert.Error(t, err)
}
