// safedrop is a single-user local secure file deposit. Files are
// threat-scanned on the way in, stored encrypted under an opaque ID,
// and restored on demand by whoever holds the ID.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/safedroporg/safedrop-go/config"
	"github.com/safedroporg/safedrop-go/crypt"
	"github.com/safedroporg/safedrop-go/vault"
)

const usage = `safedrop - secure local file deposit

Usage:
  safedrop <command> [flags]

Commands:
  upload <file>     scan, encrypt, and deposit a file
  download <id>     restore a deposited file
  list              show all deposited files
  remove <id>       delete a deposited file
  sweep             run maintenance (flatten storage, remove expired)
  version           print the version

Global flags:
  --config <path>   YAML config file (default: $SAFEDROP_BASE_DIR/config.yaml)

Run 'safedrop <command> --help' for command flags.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}
	command, rest := args[0], args[1:]

	switch command {
	case "version", "--version", "-v":
		fmt.Printf("%s %s\n", config.AppName, config.AppVersion)
		return nil
	case "help", "--help", "-h":
		fmt.Fprint(os.Stderr, usage)
		return nil
	}

	// Env file is optional; a missing .env is not an error.
	_ = godotenv.Load()

	switch command {
	case "upload":
		return cmdUpload(rest)
	case "download":
		return cmdDownload(rest)
	case "list":
		return cmdList(rest)
	case "remove":
		return cmdRemove(rest)
	case "sweep":
		return cmdSweep(rest)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// newEngine resolves configuration, builds the logger, and runs the
// startup maintenance pass. The cleanup closes the log file.
func newEngine(configPath string) (*vault.Engine, vault.MaintenanceReport, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, vault.MaintenanceReport{}, nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, vault.MaintenanceReport{}, nil, err
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return nil, vault.MaintenanceReport{}, nil, err
	}

	engine, err := vault.New(cfg, logger)
	if err != nil {
		closeLog()
		return nil, vault.MaintenanceReport{}, nil, err
	}
	report := engine.Maintain()
	return engine, report, closeLog, nil
}

// addConfigFlag registers the global --config flag on a command's set.
func addConfigFlag(flagSet *pflag.FlagSet) *string {
	return flagSet.String("config", defaultConfigPath(), "YAML config file")
}

func defaultConfigPath() string {
	if base := os.Getenv("SAFEDROP_BASE_DIR"); base != "" {
		return filepath.Join(base, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".safedrop", "config.yaml")
}

func cmdUpload(args []string) error {
	flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	configPath := addConfigFlag(flagSet)
	expiryDays := flagSet.Int("expiry-days", -1, "days until the file expires (0 = never, unset = configured default)")
	autoDelete := flagSet.Bool("auto-delete", false, "remove the file after its first download")
	note := flagSet.String("note", "", "free-form note stored with the file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: safedrop upload <file> [flags]")
	}

	engine, _, cleanup, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	days := *expiryDays
	if days < 0 {
		days = engine.Config.DefaultExpiryDays
	}

	result, err := engine.Upload(&vault.UploadOpts{
		Path:       flagSet.Arg(0),
		ExpiryDays: days,
		AutoDelete: *autoDelete,
		Note:       *note,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Deposited %s (%s)\n", result.Filename, humanize.Bytes(uint64(result.Size)))
	fmt.Printf("File ID:  %s\n", result.ID)
	if result.ExpiryTime != nil {
		fmt.Printf("Expires:  %s (%s)\n",
			result.ExpiryTime.Local().Format("2006-01-02 15:04"),
			humanize.Time(*result.ExpiryTime))
	} else {
		fmt.Println("Expires:  never")
	}
	if result.AutoDelete {
		fmt.Println("Auto-delete: after first download")
	}
	return nil
}

func cmdDownload(args []string) error {
	flagSet := pflag.NewFlagSet("download", pflag.ContinueOnError)
	configPath := addConfigFlag(flagSet)
	outDir := flagSet.String("out", ".", "directory to restore the file into")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: safedrop download <id> [flags]")
	}

	engine, _, cleanup, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := engine.Download(&vault.DownloadOpts{
		ID:      flagSet.Arg(0),
		DestDir: *outDir,
	})
	if err != nil {
		if errors.Is(err, crypt.ErrAuthentication) {
			return fmt.Errorf("decryption failed, the stored file may be corrupted: %w", err)
		}
		return err
	}

	fmt.Printf("Restored %s (%s) to %s\n",
		result.Filename, humanize.Bytes(uint64(result.Size)), result.Path)
	if result.AutoDeleted {
		fmt.Println("The file was set to auto-delete and has been removed.")
	}
	return nil
}

func cmdList(args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	configPath := addConfigFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	engine, _, cleanup, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := engine.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No files deposited.")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tSIZE\tUPLOADED\tEXPIRES\tDOWNLOADS\tNOTE")
	now := time.Now().UTC()
	for _, rec := range records {
		expires := "never"
		if rec.ExpiryTime != nil {
			if rec.Expired(now) {
				expires = "expired"
			} else {
				expires = humanize.Time(*rec.ExpiryTime)
			}
		}
		name := rec.OriginalName
		if rec.AutoDelete {
			name += " (auto-delete)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.ID,
			name,
			humanize.Bytes(uint64(rec.Size)),
			humanize.Time(rec.UploadTime),
			expires,
			rec.DownloadCount,
			rec.Note)
	}
	return writer.Flush()
}

func cmdRemove(args []string) error {
	flagSet := pflag.NewFlagSet("remove", pflag.ContinueOnError)
	configPath := addConfigFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: safedrop remove <id> [flags]")
	}

	engine, _, cleanup, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := engine.Remove(flagSet.Arg(0))
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("Nothing to remove.")
		return nil
	}
	fmt.Println("File removed.")
	return nil
}

func cmdSweep(args []string) error {
	flagSet := pflag.NewFlagSet("sweep", pflag.ContinueOnError)
	configPath := addConfigFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	_, report, cleanup, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Flattened %d stray file(s), removed %d expired file(s).\n",
		report.Flattened, report.SweptExpired)
	if report.FlattenErr != nil {
		fmt.Fprintf(os.Stderr, "flatten: %v\n", report.FlattenErr)
	}
	if report.SweepErr != nil {
		fmt.Fprintf(os.Stderr, "sweep: %v\n", report.SweepErr)
	}
	return nil
}
