package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/AmirShafiqueWR/rice-mill-fsms/internal/config"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/extract"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
)

// openStore selects PostgreSQL when a database URL is configured and
// the in-memory register otherwise. The in-memory register only lasts
// for one invocation; point FSMS_DATABASE_URL at PostgreSQL for real
// operation.
func openStore(cmd *cobra.Command, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.URL == "" {
		return store.NewMemory(), func() {}, nil
	}
	pool, err := pgxpool.New(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	pg := store.NewPgStore(pool)
	if err := pg.EnsureSchema(cmd.Context()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return pg, pool.Close, nil
}

var (
	draftTitle        string
	draftDepartment   string
	draftDocType      string
	draftPreparedBy   string
	draftApprovedBy   string
	draftRecordKeeper string
)

var draftCmd = &cobra.Command{
	Use:   "draft [file]",
	Short: "Register a new Draft document at v0.1",
	Example: `  fsmsctl draft vault/incoming/moisture_sop.docx \
    --title "Moisture Monitoring" --department Milling --doc-type SOP \
    --prepared-by "R. Ahmed" --approved-by "S. Khan" --record-keeper "QA Office"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		req := control.DraftRequest{
			Title:        draftTitle,
			Department:   document.Department(draftDepartment),
			DocType:      document.DocType(draftDocType),
			PreparedBy:   draftPreparedBy,
			ApprovedBy:   draftApprovedBy,
			RecordKeeper: draftRecordKeeper,
		}
		if len(args) == 1 {
			req.FilePath = args[0]
		}

		doc, err := eng.controller.RegisterDraft(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s %s (%s) as Draft\n", doc.DocID, doc.Version, doc.Title)
		return nil
	},
}

var approveApprover string

var approveCmd = &cobra.Command{
	Use:   "approve <doc-id>",
	Short: "Approve a Draft document to Controlled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		doc, err := eng.store.GetByDocID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result, err := eng.controller.Approve(cmd.Context(), doc.ID, approveApprover)
		if err != nil {
			return err
		}
		fmt.Printf("Approved %s at %s\n", result.Document.DocID, result.Document.Version)
		fmt.Printf("  controlled file: %s\n", result.FilePath)
		fmt.Printf("  sha256: %s\n", result.FileHash)
		return nil
	},
}

var (
	reviseKind     string
	reviseSource   string
	reviseApprover string
)

var reviseCmd = &cobra.Command{
	Use:   "revise <doc-id>",
	Short: "Revise a Controlled document (minor or major)",
	Long: `Revise a Controlled document with a new source file.

A minor revision bumps v1.0 to v1.1 in place. A major revision issues
v2.0 as a new register row and marks the prior version Obsolete; its
compliance tasks are superseded per the configured disposal policy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		doc, err := eng.store.GetByDocID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result, err := eng.controller.Revise(cmd.Context(), doc.ID,
			control.RevisionKind(reviseKind), reviseSource, reviseApprover)
		if err != nil {
			return err
		}
		fmt.Printf("Revised %s: %s -> %s\n", doc.DocID, result.PreviousVersion, result.Document.Version)
		fmt.Printf("  archived prior file: %s\n", result.ArchivedPath)
		if result.SupersededTasks > 0 {
			fmt.Printf("  superseded tasks: %d\n", result.SupersededTasks)
		}
		if result.ReextractionRequired {
			fmt.Printf("  run: fsmsctl extract %s\n", doc.DocID)
		}
		return nil
	},
}

var extractMode string

var extractCmd = &cobra.Command{
	Use:   "extract <doc-id>",
	Short: "Mine compliance tasks from a Controlled document",
	Long: `Mine mandatory-action statements out of a Controlled document and
turn them into compliance tasks.

Modes:
  commit    extract and persist tasks (default)
  preview   show what would be extracted without persisting
  auto_map  adopt suggested mappings for unmapped actors, then commit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		result, err := eng.extractor.Extract(cmd.Context(), args[0],
			extract.Mode(extractMode), eng.extractCfg)
		if err != nil && !errors.Is(err, document.ErrDuplicate) && !errors.Is(err, document.ErrNoStatements) {
			return err
		}

		if extract.Mode(extractMode) == extract.ModePreview {
			fmt.Print(extract.Preview(result))
		} else {
			fmt.Print(extract.Report(result))
		}
		return nil
	},
}

var (
	listDepartment string
	listStatus     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		docs, err := eng.store.ListDocuments(cmd.Context(), store.DocumentFilter{
			Department: document.Department(listDepartment),
			Status:     document.Status(listStatus),
		})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("No documents registered.")
			return nil
		}
		for _, doc := range docs {
			fmt.Printf("%-14s %-6s %-10s %-10s %s\n",
				doc.DocID, doc.Version, doc.Status, doc.Department, doc.Title)
		}
		return nil
	},
}

var (
	tasksDepartment string
	tasksPriority   string
	tasksStatus     string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List extracted compliance tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		tasks, err := eng.store.ListTasks(cmd.Context(), store.TaskFilter{
			Department: document.Department(tasksDepartment),
			Priority:   document.Priority(tasksPriority),
			Status:     document.TaskStatus(tasksStatus),
		})
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}
		for _, task := range tasks {
			fmt.Printf("[%s] %s / %s (%s)\n", task.Priority,
				task.AssignedDepartment, task.AssignedRole, task.ISOClause)
			fmt.Printf("    %s\n", task.Description)
			if task.Frequency != "" {
				fmt.Printf("    frequency: %s\n", task.Frequency)
			}
			if task.CriticalLimit != "" {
				fmt.Printf("    critical limit: %s\n", task.CriticalLimit)
			}
		}
		return nil
	},
}

var incomingCmd = &cobra.Command{
	Use:   "incoming",
	Short: "List files waiting in the vault's incoming area",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		files, err := eng.vault.ListIncoming()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("Incoming area is empty.")
			return nil
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil
	},
}

var repairActor string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Audit the master register",
}

var registerCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report doc_ids holding more than one Controlled version",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		conflicts, err := eng.controller.CheckRegister(cmd.Context())
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("Register is clean: one Controlled version per doc_id.")
			return nil
		}
		for _, conflict := range conflicts {
			fmt.Printf("%s has %d Controlled versions:\n", conflict.DocID, len(conflict.Documents))
			for _, doc := range conflict.Documents {
				fmt.Printf("  %s (updated %s)\n", doc.Version, doc.UpdatedAt.Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

var registerRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Obsolete all but the newest Controlled version per doc_id",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		repaired, err := eng.controller.RepairRegister(cmd.Context(), repairActor)
		if err != nil {
			return err
		}
		if repaired == 0 {
			fmt.Println("Register is clean: nothing to repair.")
		} else {
			fmt.Printf("Repaired %d conflicting records.\n", repaired)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <doc-id>",
	Short: "Verify a Controlled document against tampering",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		report, err := eng.controller.VerifyIntegrity(cmd.Context(), args[0])
		if err != nil {
			if report != nil && errors.Is(err, document.ErrIntegrity) {
				if !report.FileOK {
					fmt.Printf("FILE TAMPERED: %s %s\n", report.DocID, report.Version)
					fmt.Printf("  stored:   %s\n", report.StoredHash)
					fmt.Printf("  computed: %s\n", report.ComputedHash)
				}
				if !report.MetadataOK {
					fmt.Printf("METADATA TAMPERED: %s %s\n", report.DocID, report.Version)
				}
				return err
			}
			return err
		}
		fmt.Printf("OK: %s %s file and metadata verified\n", report.DocID, report.Version)
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var serverURL string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check a running fsmsd daemon",
	Example: `  fsmsctl health
  fsmsctl health --server http://mill-qa:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, serverURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fsmsd unreachable at %s: %w", serverURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fsmsd unhealthy: %s", resp.Status)
		}
		fmt.Printf("fsmsd at %s is healthy\n", serverURL)
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules <path>",
	Short: "Write the active extraction rules to a YAML file",
	Long: `Write the active extraction rules (actor mappings, clause rules,
priority keywords) to a YAML file for editing. Point extractor.config_path
at the edited file to load it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.cleanup()

		if err := eng.extractCfg.Save(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote extraction rules to %s\n", args[0])
		return nil
	},
}

func init() {
	draftCmd.Flags().StringVar(&draftTitle, "title", "", "document title (required)")
	draftCmd.Flags().StringVar(&draftDepartment, "department", "", "owning department (required)")
	draftCmd.Flags().StringVar(&draftDocType, "doc-type", "SOP", "document type")
	draftCmd.Flags().StringVar(&draftPreparedBy, "prepared-by", "", "author")
	draftCmd.Flags().StringVar(&draftApprovedBy, "approved-by", "", "approver of record")
	draftCmd.Flags().StringVar(&draftRecordKeeper, "record-keeper", "", "record keeper")

	approveCmd.Flags().StringVar(&approveApprover, "approver", "", "who is approving")

	reviseCmd.Flags().StringVar(&reviseKind, "kind", "minor", "revision kind: minor or major")
	reviseCmd.Flags().StringVar(&reviseSource, "source", "", "path to the revised source file (required)")
	reviseCmd.Flags().StringVar(&reviseApprover, "approver", "", "who is approving the revision")

	extractCmd.Flags().StringVar(&extractMode, "mode", "commit", "extraction mode: commit, preview, or auto_map")

	listCmd.Flags().StringVar(&listDepartment, "department", "", "filter by department")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")

	tasksCmd.Flags().StringVar(&tasksDepartment, "department", "", "filter by department")
	tasksCmd.Flags().StringVar(&tasksPriority, "priority", "", "filter by priority")
	tasksCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status")

	healthCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "fsmsd server URL")

	registerCmd.AddCommand(registerCheckCmd)
	registerCmd.AddCommand(registerRepairCmd)
	registerRepairCmd.Flags().StringVar(&repairActor, "actor", "QA Manager", "who is running the repair")
}
