package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"
)

// airportCSVRow matches the column layout of the IATA reference export.
type airportCSVRow struct {
	IATA    string `csv:"iata"`
	Name    string `csv:"name"`
	City    string `csv:"city"`
	Country string `csv:"country"`
}

func registerImportAirports(app *pocketbase.PocketBase) {
	command := &cobra.Command{
		Use:   "import-airports [csv-file]",
		Short: "Seed or refresh the airports collection from a reference CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if !app.IsBootstrapped() {
				if err := app.Bootstrap(); err != nil {
					return err
				}
			}
			return importAirports(app, args[0])
		},
	}

	app.RootCmd.AddCommand(command)
}

// importAirports upserts by IATA code so the command can be re-run on a
// newer reference file without duplicating rows.
func importAirports(app core.App, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	var rows []airportCSVRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	collection, err := app.FindCollectionByNameOrId("airports")
	if err != nil {
		return fmt.Errorf("find airports collection: %w", err)
	}

	created, updated, skipped := 0, 0, 0
	for _, row := range rows {
		iata := strings.ToUpper(strings.TrimSpace(row.IATA))
		if len(iata) != 3 {
			skipped++
			continue
		}

		record, err := app.FindFirstRecordByFilter(
			"airports",
			"iata = {:iata}",
			dbx.Params{"iata": iata},
		)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("lookup airport %s: %w", iata, err)
			}
			record = core.NewRecord(collection)
			created++
		} else {
			updated++
		}

		record.Set("iata", iata)
		record.Set("name", strings.TrimSpace(row.Name))
		record.Set("city", strings.TrimSpace(row.City))
		record.Set("country", strings.TrimSpace(row.Country))

		if err := app.Save(record); err != nil {
			return fmt.Errorf("save airport %s: %w", iata, err)
		}
	}

	log.Printf("airports import finished: %d created, %d updated, %d skipped", created, updated, skipped)
	return nil
}
