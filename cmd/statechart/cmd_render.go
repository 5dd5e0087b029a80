package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ib-77/statechart/pkg/statechart"
	"github.com/ib-77/statechart/pkg/statechart/display"
	"github.com/ib-77/statechart/pkg/statechart/model"
)

func newRenderCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render [chart.yaml]",
		Short: "Print a chart as a PlantUML state diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := model.Load(args[0])
			if err != nil {
				return err
			}
			sc, err := def.Build(placeholders(def), statechart.WithLogger(logger))
			if err != nil {
				return err
			}

			uml, err := display.New().PlantUML(sc)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), uml)
				return err
			}
			if err := os.WriteFile(output, []byte(uml+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Info("diagram written", zap.String("path", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the diagram to a file instead of stdout")
	return cmd
}
