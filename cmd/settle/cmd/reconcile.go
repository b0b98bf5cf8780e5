package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flojun/oceanstar-admin-page-sub000/cmd/settle/config"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/reconciler"
	"github.com/flojun/oceanstar-admin-page-sub000/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	settlementFile  string
	reservationFile string
	catalogFile     string
	platform        string
	outputFormat    string
	outputFile      string
	receiptTol      int
	tourTol         int
	warnDiffPct     float64
	saturdayCarry   bool
	includeNormal   bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile an OTA settlement export against reservations",
	Long: `Reconcile compares one OTA settlement export with the internal
reservation database and the product price catalog.

This command requires:
- A settlement export file (CSV format)
- A reservation dump file (CSV format)
- A product price catalog file (CSV format)

Examples:
  # Basic reconciliation
  settle reconcile -s settlement.csv -r reservations.csv -c catalog.csv

  # Klook export, JSON output to file
  settle reconcile -s klook.csv -r reservations.csv -c catalog.csv \
    --platform klook --output-format json --output-file report.json

  # Loosen the amount warning threshold to 10%
  settle reconcile -s settlement.csv -r reservations.csv -c catalog.csv \
    --warn-diff-percent 10`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&settlementFile, "settlement-file", "s", "", "path to OTA settlement CSV file (required)")
	reconcileCmd.Flags().StringVarP(&reservationFile, "reservation-file", "r", "", "path to reservation dump CSV file (required)")
	reconcileCmd.Flags().StringVarP(&catalogFile, "catalog-file", "c", "", "path to product catalog CSV file (required)")

	reconcileCmd.Flags().StringVarP(&platform, "platform", "p", "", "settlement platform: myrealtrip, klook, kkday (default: generic)")

	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reconcileCmd.Flags().IntVar(&receiptTol, "receipt-tolerance", 1, "receipt-date fuzzy matching tolerance in days")
	reconcileCmd.Flags().IntVar(&tourTol, "tour-tolerance", 1, "tour-date tolerance in days for groups without a receipt date")
	reconcileCmd.Flags().Float64Var(&warnDiffPct, "warn-diff-percent", 5.0, "amount difference percentage treated as a warning instead of an error")
	reconcileCmd.Flags().BoolVar(&saturdayCarry, "saturday-carryover", true, "treat Saturday bookings missing from the export as carried over")
	reconcileCmd.Flags().BoolVar(&includeNormal, "include-normal", false, "include cleanly reconciled rows in console output")

	reconcileCmd.MarkFlagRequired("settlement-file")
	reconcileCmd.MarkFlagRequired("reservation-file")
	reconcileCmd.MarkFlagRequired("catalog-file")

	viper.BindPFlag("settlement-file", reconcileCmd.Flags().Lookup("settlement-file"))
	viper.BindPFlag("reservation-file", reconcileCmd.Flags().Lookup("reservation-file"))
	viper.BindPFlag("catalog-file", reconcileCmd.Flags().Lookup("catalog-file"))
	viper.BindPFlag("platform", reconcileCmd.Flags().Lookup("platform"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("receipt-tolerance", reconcileCmd.Flags().Lookup("receipt-tolerance"))
	viper.BindPFlag("tour-tolerance", reconcileCmd.Flags().Lookup("tour-tolerance"))
	viper.BindPFlag("warn-diff-percent", reconcileCmd.Flags().Lookup("warn-diff-percent"))
	viper.BindPFlag("saturday-carryover", reconcileCmd.Flags().Lookup("saturday-carryover"))
	viper.BindPFlag("include-normal", reconcileCmd.Flags().Lookup("include-normal"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so a config file can override flag defaults
	settlementFile = viper.GetString("settlement-file")
	reservationFile = viper.GetString("reservation-file")
	catalogFile = viper.GetString("catalog-file")
	platform = viper.GetString("platform")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	receiptTol = viper.GetInt("receipt-tolerance")
	tourTol = viper.GetInt("tour-tolerance")
	warnDiffPct = viper.GetFloat64("warn-diff-percent")
	saturdayCarry = viper.GetBool("saturday-carryover")
	includeNormal = viper.GetBool("include-normal")

	if settlementFile == "" {
		return fmt.Errorf("settlement-file is required")
	}
	if reservationFile == "" {
		return fmt.Errorf("reservation-file is required")
	}
	if catalogFile == "" {
		return fmt.Errorf("catalog-file is required")
	}

	if err := validateFileExists(settlementFile, "settlement file"); err != nil {
		return err
	}
	if err := validateFileExists(reservationFile, "reservation file"); err != nil {
		return err
	}
	if err := validateFileExists(catalogFile, "catalog file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if receiptTol < 0 {
		return fmt.Errorf("receipt tolerance cannot be negative")
	}
	if tourTol < 0 {
		return fmt.Errorf("tour tolerance cannot be negative")
	}
	if warnDiffPct < 0.0 || warnDiffPct > 100.0 {
		return fmt.Errorf("warn diff percent must be between 0.0 and 100.0")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	handler := NewCLIErrorHandler()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting settlement reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Settlement file: %s\n", settlementFile)
		fmt.Fprintf(os.Stderr, "Reservation file: %s\n", reservationFile)
		fmt.Fprintf(os.Stderr, "Catalog file: %s\n", catalogFile)
		if platform != "" {
			fmt.Fprintf(os.Stderr, "Platform: %s\n", platform)
		}
	}

	matchingConfig := config.CreateMatchingConfig(receiptTol, tourTol, warnDiffPct, saturdayCarry)
	serviceConfig := config.CreateServiceConfig(matchingConfig)

	service, err := reconciler.NewSettlementService(serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create settlement service: %w", err)
	}

	request := &reconciler.SettlementRequest{
		SettlementFile:  settlementFile,
		ReservationFile: reservationFile,
		CatalogFile:     catalogFile,
		Platform:        platform,
	}

	result, err := service.Process(ctx, request)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	reportConfig := config.CreateReportConfig(outputFormat, includeNormal)
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	writer := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	if err := generator.GenerateReport(result, writer); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Reconciliation complete: %d results in %v\n",
			result.Summary.TotalResults, result.Duration)
	}

	return nil
}
