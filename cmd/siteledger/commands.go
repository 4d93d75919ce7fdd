package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// fieldFlag binds one CLI flag to one JSON field of an entity kind.
type fieldFlag struct {
	flag  string
	key   string
	usage string
}

type entitySpec struct {
	use    string
	noun   string
	path   string
	fields []fieldFlag
}

// entitySpecs is the whole per-kind CLI surface: one table instead of four
// near-identical command sets. Numeric fields are passed through as strings;
// the server coerces them (unparseable values become 0).
var entitySpecs = []entitySpec{
	{
		use:  "projects",
		noun: "project",
		path: "/projects",
		fields: []fieldFlag{
			{"location", "location", "site location"},
			{"budget", "budget", "budget in dollars"},
			{"due", "dueDate", "due date (YYYY-MM-DD)"},
			{"status", "status", "planning|active|pending|completed|overdue"},
			{"progress", "progress", "progress percentage (0-100)"},
			{"notes", "notes", "free-form notes"},
		},
	},
	{
		use:  "architects",
		noun: "architect",
		path: "/architects",
		fields: []fieldFlag{
			{"email", "email", "email address"},
			{"phone", "phone", "phone number"},
			{"specialization", "specialization", "area of specialization"},
			{"license", "license", "license number"},
			{"experience", "experience", "years of experience"},
			{"status", "status", "active|inactive|on-leave"},
			{"notes", "notes", "free-form notes"},
		},
	},
	{
		use:  "supervisors",
		noun: "supervisor",
		path: "/supervisors",
		fields: []fieldFlag{
			{"email", "email", "email address"},
			{"phone", "phone", "phone number"},
			{"department", "department", "department"},
			{"certifications", "certifications", "certifications"},
			{"status", "status", "active|inactive|on-leave"},
			{"notes", "notes", "free-form notes"},
		},
	},
	{
		use:  "contractors",
		noun: "contractor",
		path: "/contractors",
		fields: []fieldFlag{
			{"company", "company", "company name"},
			{"email", "email", "email address"},
			{"phone", "phone", "phone number"},
			{"trade", "trade", "trade or specialty"},
			{"rate", "hourlyRate", "hourly rate in dollars"},
			{"status", "status", "active|inactive|on-project"},
			{"notes", "notes", "free-form notes"},
		},
	},
}

func entityCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(entitySpecs))
	for _, spec := range entitySpecs {
		parent := &cobra.Command{
			Use:   spec.use,
			Short: fmt.Sprintf("Manage %s records", spec.noun),
		}
		parent.AddCommand(
			newListCmd(spec),
			newAddCmd(spec),
			newUpdateCmd(spec),
			newRemoveCmd(spec),
		)
		cmds = append(cmds, parent)
	}
	return cmds
}

func newListCmd(spec entitySpec) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List all %ss", spec.noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.get(cmd.Context(), spec.path)
			if err != nil {
				return err
			}

			var records []struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Status string `json:"status"`
			}
			if err := decodeJSON(resp, &records); err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Printf("No %ss found.\n", spec.noun)
				return nil
			}

			for _, rec := range records {
				fmt.Printf("%s  %-12s %s\n",
					colorize(colorCyan, shortID(rec.ID)),
					rec.Status,
					rec.Name,
				)
			}
			return nil
		},
	}
}

func newAddCmd(spec entitySpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add a %s", spec.noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")

			body := map[string]any{"name": name}
			for _, f := range spec.fields {
				if cmd.Flags().Changed(f.flag) {
					v, _ := cmd.Flags().GetString(f.flag)
					body[f.key] = v
				}
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.post(cmd.Context(), spec.path, body)
			if err != nil {
				return err
			}

			var created struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}

			printSuccess("Added %s %q (%s)", spec.noun, created.Name, shortID(created.ID))
			return nil
		},
	}
	cmd.Flags().String("name", "", spec.noun+" name (required)")
	cmd.MarkFlagRequired("name")
	for _, f := range spec.fields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	return cmd
}

func newUpdateCmd(spec entitySpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Replace all fields of a %s", spec.noun),
		Long:  fmt.Sprintf("Replace all fields of a %s. Updates are whole-record replacements:\nflags left unset reset their fields to defaults.", spec.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")

			body := map[string]any{"name": name}
			for _, f := range spec.fields {
				v, _ := cmd.Flags().GetString(f.flag)
				body[f.key] = v
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.put(cmd.Context(), spec.path+"/"+args[0], body)
			if err != nil {
				return err
			}

			var updated struct {
				Name string `json:"name"`
			}
			if err := decodeJSON(resp, &updated); err != nil {
				return err
			}

			printSuccess("Updated %s %q", spec.noun, updated.Name)
			return nil
		},
	}
	cmd.Flags().String("name", "", spec.noun+" name (required)")
	cmd.MarkFlagRequired("name")
	for _, f := range spec.fields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	return cmd
}

func newRemoveCmd(spec entitySpec) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: fmt.Sprintf("Delete a %s", spec.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.delete(cmd.Context(), spec.path+"/"+args[0])
			if err != nil {
				return err
			}

			var result map[string]string
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}

			printSuccess("Deleted %s %s", spec.noun, args[0])
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- dashboard ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/dashboard")
		if err != nil {
			return err
		}

		var stats struct {
			ActiveProjects int `json:"activeProjects"`
			TeamMembers    int `json:"teamMembers"`
			CompletedTasks int `json:"completedTasks"`
			OverdueItems   int `json:"overdueItems"`
		}
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Active projects", "%d", stats.ActiveProjects)
		printStatus("Team members", "%d", stats.TeamMembers)
		printStatus("Completed", "%d", stats.CompletedTasks)
		printStatus("Overdue", "%d", stats.OverdueItems)
		return nil
	},
}

// --- activity ---

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent activity, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/activity?limit="+strconv.Itoa(limit))
		if err != nil {
			return err
		}

		var entries []struct {
			User      string    `json:"user"`
			Action    string    `json:"action"`
			Timestamp time.Time `json:"timestamp"`
		}
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s: %s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04"),
				colorize(colorBold, e.User),
				e.Action,
			)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().Int("limit", 20, "maximum number of entries")
}

// --- role ---

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Show the current role",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/role")
		if err != nil {
			return err
		}

		var result struct {
			Role string `json:"role"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printStatus("Role", "%s", result.Role)
		return nil
	},
}

var roleSetCmd = &cobra.Command{
	Use:   "set <admin|readonly>",
	Short: "Change the current role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/role", map[string]string{"role": args[0]})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Role set to %s", result["role"])
		return nil
	},
}

func init() {
	roleCmd.AddCommand(roleSetCmd)
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export or import the full snapshot",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full snapshot as pretty-printed JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/export")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		if _, err := io.Copy(writer, resp.Body); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		if output != "" {
			printSuccess("Data exported to %s", output)
		}
		return nil
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a snapshot file, merging it over current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postRaw(cmd.Context(), "/import", data)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Data imported from %s", args[0])
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
}

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger a simulated GitHub sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/sync", nil)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Sync scheduled")
		return nil
	},
}
