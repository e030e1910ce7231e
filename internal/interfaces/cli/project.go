package cli

import (
	"github.com/spf13/cobra"

	"github.com/latticeforge/kernel/internal/application/project"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/pkg/errors"
)

var projectName string

// NewProjectCmd creates the project command, covering the §6-EXP save/load
// verbs against the shared project.Service.
func NewProjectCmd(svc *project.Service, logger logging.Logger) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Save and load `.cnnd` project documents",
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Persist a network's current state as a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.SaveProject(cmd.Context(), projectName); err != nil {
				return errors.Wrap(err, errors.CodeStorageError, "failed to save project")
			}
			logger.Info("project saved", logging.String("name", projectName))
			PrintSuccess(cmd, "project saved: "+projectName)
			return nil
		},
	}
	saveCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	saveCmd.MarkFlagRequired("name")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load a previously saved project into a live network",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.LoadProject(cmd.Context(), projectName); err != nil {
				return errors.Wrap(err, errors.CodeStorageError, "failed to load project")
			}
			logger.Info("project loaded", logging.String("name", projectName))
			PrintSuccess(cmd, "project loaded: "+projectName)
			return nil
		},
	}
	loadCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	loadCmd.MarkFlagRequired("name")

	projectCmd.AddCommand(saveCmd, loadCmd)
	return projectCmd
}
