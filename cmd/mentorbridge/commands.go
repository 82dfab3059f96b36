package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/magicbus/mentorbridge/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mentorbridge system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var learnersCmd = &cobra.Command{
	Use:   "learners",
	Short: "List learners from the reference dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/learners")
		if err != nil {
			return err
		}

		var result struct {
			Learners []string `json:"learners"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Learners) == 0 {
			printWarning("no learners in the reference dataset")
			return nil
		}
		for _, name := range result.Learners {
			fmt.Println(name)
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <learner> <message>",
	Short: "Send one chat message on a learner's behalf",
	Long: `Send one chat message on a learner's behalf and print the reply.

Examples:
  mentorbridge chat Asha "What should I learn next?"
  mentorbridge chat Asha --roadmap`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roadmap, _ := cmd.Flags().GetBool("roadmap")
		name := args[0]
		message := ""
		if len(args) > 1 {
			message = args[1]
		}
		if message == "" && !roadmap {
			return fmt.Errorf("a message or --roadmap is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/learners/"+name+"/chat", map[string]any{
			"message":          message,
			"roadmapRequested": roadmap,
		})
		if err != nil {
			return err
		}

		var result struct {
			Reply string `json:"reply"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Reply)
		return nil
	},
}

func init() {
	chatCmd.Flags().Bool("roadmap", false, "request a full mentor-ready roadmap")
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Advice backend", "%s", cfg.Backend.BaseURL)
	if cfg.WarehouseEnabled() {
		printStatus("Dataset", "warehouse (%s) with CSV fallback", cfg.Warehouse.WorkspaceURL)
	} else {
		printStatus("Dataset", "CSV only (%s)", cfg.Dataset.CSVPath)
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
