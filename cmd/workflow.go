package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"task-review-system.com/task-review-system/internal/constants"
	"task-review-system.com/task-review-system/internal/workflow"
)

type statusDoc struct {
	Name     constants.TaskStatus `yaml:"name"`
	Label    string               `yaml:"label"`
	Terminal bool                 `yaml:"terminal,omitempty"`
}

type workflowDoc struct {
	Statuses    []statusDoc           `yaml:"statuses"`
	Transitions []workflow.Transition `yaml:"transitions"`
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Print the review pipeline as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := workflowDoc{Transitions: workflow.Transitions()}
		for _, s := range constants.AllStatuses() {
			doc.Statuses = append(doc.Statuses, statusDoc{Name: s, Label: s.Label(), Terminal: s.IsTerminal()})
		}

		out, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode workflow: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
}
