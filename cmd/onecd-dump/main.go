// Command onecd-dump opens a .1CD file and prints its table catalog, or
// the rows of one named table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/DenMMM/db-1cd/conf"
	"github.com/DenMMM/db-1cd/logger"
	"github.com/DenMMM/db-1cd/onecd"
	"github.com/DenMMM/db-1cd/store/field"
)

func main() {
	var args conf.CommandLineArgs
	var table string

	flag.StringVar(&args.ConfigPath, "c", "", "path to an onecd.ini config file")
	flag.StringVar(&table, "table", "", "dump rows of this table instead of listing the catalog")
	flag.Parse()

	path := flag.Arg(0)
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: onecd-dump [-c config.ini] [-table NAME] <database.1cd>")
		os.Exit(2)
	}

	cfg, err := conf.NewCfg().Load(&args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		ErrorLogPath: cfg.LogError,
		InfoLogPath:  cfg.LogInfo,
		Level:        cfg.LogLevel,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}

	db, err := onecd.Open(path, cfg.CacheSize)
	if err != nil {
		logger.Errorf("open %q: %v", path, err)
		os.Exit(1)
	}
	defer db.Close()

	if table != "" {
		if err := dumpTable(db, table); err != nil {
			logger.Errorf("dump %q: %v", table, err)
			os.Exit(1)
		}
		return
	}

	if err := dumpCatalog(db); err != nil {
		logger.Errorf("dump catalog: %v", err)
		os.Exit(1)
	}
}

func dumpCatalog(db *onecd.Database) error {
	n := db.Tables()
	for i := uint32(0); i < n; i++ {
		t, err := db.Table(i)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s columns=%-3d records=%-6d blob=%-6d indexes=%-6d lock=%v\n",
			t.Name, len(t.Columns), t.IRecords, t.IBlob, t.IIndexes, t.RecordLock)
	}
	return nil
}

func dumpTable(db *onecd.Database, name string) error {
	n := db.Tables()
	for i := uint32(0); i < n; i++ {
		t, err := db.Table(i)
		if err != nil {
			return err
		}
		if t.Name != name {
			continue
		}

		rs, err := db.Records(t)
		if err != nil {
			return err
		}

		for r := uint32(0); r < rs.Size(); r++ {
			if err := rs.Seek(r); err != nil {
				return err
			}
			if rs.IsDeleted() {
				fmt.Printf("row %d: deleted\n", r)
				continue
			}

			fmt.Printf("row %d:", r)
			for c := range t.Columns {
				v, err := rs.GetField(uint32(c))
				if err != nil {
					return err
				}
				fmt.Printf(" %s=%s", t.Columns[c].Name, formatValue(v))
			}
			fmt.Println()
		}
		return nil
	}

	return fmt.Errorf("table %q not found", name)
}

func formatValue(v field.Value) string {
	if !v.Present {
		return "<null>"
	}

	switch v.Kind {
	case field.Boolean:
		return fmt.Sprintf("%v", v.Boolean())
	case field.StrFix, field.StrVar:
		return v.Str()
	case field.Binary:
		return fmt.Sprintf("%x", v.Binary())
	case field.Digit:
		return fmt.Sprintf("%x", v.Digit())
	case field.StrBlob, field.BinBlob:
		ref := v.Blob()
		return fmt.Sprintf("blob(index=%d,size=%d)", ref.Index, ref.Size)
	case field.VersionKind:
		ver := v.VersionValue()
		return fmt.Sprintf("%d.%d.%d.%d", ver.V1, ver.V2, ver.V3, ver.V4)
	case field.DateTimeKind:
		dt := v.DateTimeValue()
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	default:
		return "<unknown>"
	}
}
