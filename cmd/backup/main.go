package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"learnlens/internal/config"
	"learnlens/internal/database"
	"learnlens/internal/logger"
	"learnlens/internal/service"
)

var (
	exportOutput string
	importInput  string
	importClear  bool
	assumeYes    bool

	log *logger.Logger
	db  *database.DB
)

var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "LearnLens database backup tool",
	Long: `Exports and imports parents, children and their activity history as JSON.

Environment Variables:
  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./learnlens.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err = database.InitializeWithConfig(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		// Run migrations to ensure schema is up to date
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
		if log != nil {
			log.Sync()
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export database to JSON file",
	Example: `  backup export
  backup export --output mybackup.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return handleExport(service.NewBackupService(db, log), exportOutput)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import database from JSON file",
	Example: `  # Merge with existing data
  backup import --input backup.json

  # Replace all data
  backup import --input backup.json --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return handleImport(cmd, service.NewBackupService(db, log), importInput, importClear)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file path")
	importCmd.Flags().BoolVar(&importClear, "clear", false, "Clear existing data before import (WARNING: destructive)")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func handleExport(backupService *service.BackupService, outputPath string) error {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	log.Info("exporting database", "path", outputPath)
	backup, err := backupService.ExportToFile(outputPath)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	log.Info("export complete", "users", len(backup.Users), "size_mb", float64(fileInfo.Size())/1024/1024)
	return nil
}

func handleImport(cmd *cobra.Command, backupService *service.BackupService, inputPath string, clearData bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	if clearData {
		if !assumeYes {
			fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
			confirmation, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(confirmation) != "yes" {
				log.Info("import cancelled")
				return nil
			}
		}

		log.Info("clearing existing data")
		if err := clearDatabase(db); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}

	log.Info("importing database", "path", inputPath)
	stats, err := backupService.ImportFromFile(inputPath)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users (%d skipped), %d children, %d activities\n",
		stats.Users, stats.SkippedUsers, stats.Kids, stats.Activities)
	return nil
}

func clearDatabase(db *database.DB) error {
	// Delete in reverse order of dependencies
	tables := []string{
		"activities",
		"kids",
		"sessions",
		"users",
	}

	return db.WithTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Debug("cleared table", "table", table)
		}
		return nil
	})
}
