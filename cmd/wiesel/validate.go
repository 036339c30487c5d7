package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/engine"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scene...]",
		Short: "Check the config and scene files",
		Long: `Validate parses the config and every scene file, then loads each scene
into a scratch engine so that unknown script types, bad field values and
broken references are reported as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			e, err := engine.New(config, nil, zap.NewNop())
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				scene, err := e.LoadSceneFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n  %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d entities)\n", path, scene.World().Len())
				e.DestroyScene(scene.ID())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scene files failed", failed, len(args))
			}
			return nil
		},
	}
}
