package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"room-lab/domain"
	"room-lab/repositories"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Dumps every stored room of a rooms service database.
// The service must be stopped: badger holds an exclusive lock on its directory.
func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	kind := flag.String("kind", "", "Only show rooms of this kind (public or private)")
	flag.Parse()
	if lo.FromPtr(dbPath) == "" {
		log.Fatal("missing -db")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	rooms, err := repositories.NewRoomRepository(db, logs.GetLoggerFromString("ERROR")).ListRooms()
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room ID", "Name", "Kind", "Status", "Occupancy", "Participants"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range rooms {
		if *kind != "" && string(room.Kind) != *kind {
			continue
		}
		usernames := lo.Map(room.Participants, func(p domain.Participant, _ int) string {
			return p.Username()
		})
		table.Append([]string{
			room.ID.String(),
			room.Name,
			string(room.Kind),
			string(room.Status),
			fmt.Sprintf("%d/%d", len(room.Participants), room.Capacity),
			strings.Join(usernames, ","),
		})
	}
	table.Render()
}
