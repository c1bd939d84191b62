package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// processCmd runs both pipelines in-process against one file, without any
// HTTP hop between them. With a sqlite store configured the run is durable
// and `report` can read it back later.
func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Run a document through both pipelines locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer st.closer()

			documentID, err := cmd.Flags().GetString("id")
			if err != nil {
				return err
			}
			if documentID == "" {
				documentID = uuid.New().String()
			}

			processor := buildProcessor(cfg, st)
			advisor := buildAdvisor(cfg, st)
			bridge := service.NewBridge(st.documents, st.audit, st.transfers, advisor, cfg.Bridge)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := processor.Process(ctx, documentID, args[0])
			if err != nil {
				return fmt.Errorf("processing failed: %w", err)
			}
			if err := bridge.Deliver(ctx, documentID); err != nil {
				return fmt.Errorf("advisory failed: %w", err)
			}

			report, err := advisor.GetReport(documentID)
			if err != nil {
				return err
			}

			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			if asJSON {
				out := map[string]any{"result": result, "report": report}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Print(service.RenderMarkdown(*report))
			return nil
		},
	}

	cmd.Flags().String("id", "", "Document id (defaults to a new UUID)")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

// reportCmd prints a previously generated report from the configured store.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [document-id]",
		Short: "Print the compliance report for a processed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Path == "" {
				return fmt.Errorf("report requires a persistent store (set store.path)")
			}

			st, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer st.closer()

			report, err := st.documents.GetReport(args[0])
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					return fmt.Errorf("no report for document %s", args[0])
				}
				return err
			}

			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Print(service.RenderMarkdown(*report))
			return nil
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}
