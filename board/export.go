package board

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// snapshotHeader is the fixed column order of a quarter export.
var snapshotHeader = []string{
	"Date", "Shift Type", "Quarter", "EID", "Name", "Path ID", "Path Name",
	"Station", "Present", "Shift Code", "Tags", "Flip Time",
}

// WriteSnapshotCSV renders a quarter snapshot, one row per placement.
func WriteSnapshotCSV(w io.Writer, snap QuarterSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return err
	}
	for _, r := range snap.Rows {
		rec := []string{
			r.Date, r.ShiftType, r.Quarter, r.EID, r.Name, r.PathID, r.PathName,
			r.Station, strconv.FormatBool(r.Present), r.ShiftCode, r.Tags, r.FlipTime,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// scheduleHeader is the column order of a scheduled-population listing.
var scheduleHeader = []string{
	"Date", "Shift Type", "EID", "Name", "Shift Code", "Manager", "Tags",
}

// WriteScheduleCSV renders the derived scheduled population, one row per
// badge, in badge order. Used by the headless derive command.
func WriteScheduleCSV(w io.Writer, date, shift string, badges []Badge) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scheduleHeader); err != nil {
		return err
	}
	for _, b := range badges {
		rec := []string{date, shift, b.EID, b.Name, b.ShiftCode, b.ManagerID, b.Tags.Summary()}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAuditCSV renders audit entries oldest-first. The on-screen view is
// newest-first; the export is chronological.
func WriteAuditCSV(w io.Writer, entries []AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ts", "kind", "eid", "from", "to"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.TS.Format(time.RFC3339), string(e.Kind), e.EID, e.From, e.To}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
