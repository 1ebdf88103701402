package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/server"
)

func addServe(topLevel *cobra.Command) {
	var (
		port   string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the StudyFlow backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				var err error
				dbPath, err = server.DefaultDBPath()
				if err != nil {
					return fmt.Errorf("resolving database path: %w", err)
				}
			}

			srv, err := server.New(dbPath)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer srv.Close()

			logger.Info("server starting",
				logger.F("port", port), logger.F("db", dbPath))
			return srv.Start(":" + port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "5000", "port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")

	topLevel.AddCommand(cmd)
}
