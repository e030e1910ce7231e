package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

var (
	networkName string
	nodeType    string
	nodeX       float64
	nodeY       float64
	nodeID      uint64
	fromNodeID  uint64
	toNodeID    uint64
	argName     string
	selectIDs   string
	networkOut  string
)

// NewNetworkCmd creates the network command, covering the view/node/wire/
// selection verbs of SPEC_FULL.md §6-EXP against the shared project.Service.
func NewNetworkCmd(svc *project.Service, logger logging.Logger) *cobra.Command {
	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Inspect and mutate a node network",
		Long:  "View, create, move, wire, and select nodes in a live node network.",
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Render a network's current node/wire layout and evaluation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetworkView(cmd, svc)
		},
	}
	viewCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	viewCmd.Flags().StringVar(&networkOut, "output", "table", "output format: table|json")
	viewCmd.MarkFlagRequired("name")

	createNodeCmd := &cobra.Command{
		Use:   "create-node",
		Short: "Create a node in a network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateNode(cmd, svc, logger)
		},
	}
	createNodeCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	createNodeCmd.Flags().StringVar(&nodeType, "type", "", "node type name (required)")
	createNodeCmd.Flags().Float64Var(&nodeX, "x", 0, "canvas x position")
	createNodeCmd.Flags().Float64Var(&nodeY, "y", 0, "canvas y position")
	createNodeCmd.MarkFlagRequired("name")
	createNodeCmd.MarkFlagRequired("type")

	moveNodeCmd := &cobra.Command{
		Use:   "move-node",
		Short: "Reposition a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMoveNode(cmd, svc, logger)
		},
	}
	moveNodeCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	moveNodeCmd.Flags().Uint64Var(&nodeID, "node-id", 0, "node id (required)")
	moveNodeCmd.Flags().Float64Var(&nodeX, "x", 0, "new canvas x position")
	moveNodeCmd.Flags().Float64Var(&nodeY, "y", 0, "new canvas y position")
	moveNodeCmd.MarkFlagRequired("name")

	createWireCmd := &cobra.Command{
		Use:   "create-wire",
		Short: "Connect one node's output to another node's argument",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateWire(cmd, svc, logger)
		},
	}
	createWireCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	createWireCmd.Flags().Uint64Var(&fromNodeID, "from", 0, "source node id")
	createWireCmd.Flags().Uint64Var(&toNodeID, "to", 0, "destination node id")
	createWireCmd.Flags().StringVar(&argName, "arg", "", "destination parameter name (required)")
	createWireCmd.MarkFlagRequired("name")
	createWireCmd.MarkFlagRequired("arg")

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Replace a network's selected-node set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, svc)
		},
	}
	selectCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	selectCmd.Flags().StringVar(&selectIDs, "ids", "", "comma-separated node ids")
	selectCmd.MarkFlagRequired("name")

	deleteSelectionCmd := &cobra.Command{
		Use:   "delete-selection",
		Short: "Delete every currently-selected node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteSelection(cmd, svc, logger)
		},
	}
	deleteSelectionCmd.Flags().StringVar(&networkName, "name", "", "network name (required)")
	deleteSelectionCmd.MarkFlagRequired("name")

	networkCmd.AddCommand(viewCmd, createNodeCmd, moveNodeCmd, createWireCmd, selectCmd, deleteSelectionCmd)
	return networkCmd
}

func runNetworkView(cmd *cobra.Command, svc *project.Service) error {
	view, err := svc.ViewNetwork(cmd.Context(), networkName)
	if err != nil {
		return errors.Wrap(err, errors.CodeNodeNotFound, "failed to view network")
	}

	if strings.ToLower(networkOut) == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nnetwork: %s\n", view.Name)
	status := color.GreenString("valid")
	if !view.Success {
		status = color.RedString("invalid: " + view.ErrorMessage)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n\n", status)

	nodeTable := tablewriter.NewWriter(cmd.OutOrStdout())
	nodeTable.SetHeader([]string{"ID", "Type", "X", "Y"})
	for _, n := range view.Nodes {
		nodeTable.Append([]string{
			strconv.FormatUint(n.ID, 10), n.TypeName,
			strconv.FormatFloat(n.X, 'f', 2, 64), strconv.FormatFloat(n.Y, 'f', 2, 64),
		})
	}
	nodeTable.Render()

	wireTable := tablewriter.NewWriter(cmd.OutOrStdout())
	wireTable.SetHeader([]string{"From", "To", "Arg"})
	for _, w := range view.Wires {
		wireTable.Append([]string{
			strconv.FormatUint(w.FromNodeID, 10), strconv.FormatUint(w.ToNodeID, 10), w.ArgName,
		})
	}
	wireTable.Render()

	return nil
}

func runCreateNode(cmd *cobra.Command, svc *project.Service, logger logging.Logger) error {
	result, err := svc.CreateNode(cmd.Context(), networkName, nodeType, nodeX, nodeY)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnknownNodeType, "failed to create node")
	}
	logger.Info("node created", logging.String("network", networkName), logging.String("type", nodeType))
	if !result.Success {
		PrintError(cmd, errors.New(errors.CodeExprParseError, result.ErrorMessage))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "node_id: %d\n", result.NodeID)
	return nil
}

func runMoveNode(cmd *cobra.Command, svc *project.Service, logger logging.Logger) error {
	if err := svc.MoveNode(cmd.Context(), networkName, nodeID, nodeX, nodeY); err != nil {
		return errors.Wrap(err, errors.CodeNodeNotFound, "failed to move node")
	}
	logger.Info("node moved", logging.String("network", networkName), logging.Int64("node_id", int64(nodeID)))
	PrintSuccess(cmd, "node moved")
	return nil
}

func runCreateWire(cmd *cobra.Command, svc *project.Service, logger logging.Logger) error {
	success, errMsg, err := svc.CreateWire(cmd.Context(), networkName, fromNodeID, toNodeID, argName)
	if err != nil {
		return errors.Wrap(err, errors.CodeNodeNotFound, "failed to create wire")
	}
	if !success {
		PrintError(cmd, errors.New(errors.CodeInvalidParam, errMsg))
		return nil
	}
	logger.Info("wire created", logging.String("network", networkName), logging.String("arg", argName))
	PrintSuccess(cmd, "wire created")
	return nil
}

func runSelect(cmd *cobra.Command, svc *project.Service) error {
	ids, err := parseNodeIDs(selectIDs)
	if err != nil {
		return err
	}
	if err := svc.Select(cmd.Context(), networkName, ids); err != nil {
		return errors.Wrap(err, errors.CodeNodeNotFound, "failed to select nodes")
	}
	PrintSuccess(cmd, fmt.Sprintf("selected %d node(s)", len(ids)))
	return nil
}

func runDeleteSelection(cmd *cobra.Command, svc *project.Service, logger logging.Logger) error {
	success, errMsg, err := svc.DeleteSelection(cmd.Context(), networkName)
	if err != nil {
		return errors.Wrap(err, errors.CodeNodeNotFound, "failed to delete selection")
	}
	if !success {
		PrintError(cmd, errors.New(errors.CodeExprParseError, errMsg))
		return nil
	}
	logger.Info("selection deleted", logging.String("network", networkName))
	PrintSuccess(cmd, "selection deleted")
	return nil
}

func parseNodeIDs(input string) ([]uint64, error) {
	if input == "" {
		return nil, nil
	}
	parts := strings.Split(input, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, errors.New(errors.CodeInvalidParam, "invalid node id: "+trimmed)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
