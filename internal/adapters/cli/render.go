package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/samirrijal/trackcluster/internal/adapters/export"
	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/pkg/geospatial"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func renderSessions(w io.Writer, sessions []domain.Session) {
	table := newTable(w, "ID", "Sport", "Start", "Duration", "Distance", "Notes")
	for i := range sessions {
		s := &sessions[i]
		table.Append([]string{
			s.ID,
			s.SportTypeID,
			formatTime(s.StartTime),
			s.Duration.Round(time.Second).String(),
			formatKm(s.Distance),
			truncateString(s.Notes, 40),
		})
	}
	table.Render()
	fmt.Fprintf(w, "\n%d sessions\n", len(sessions))
}

func renderSession(w io.Writer, s *domain.Session) {
	table := newTable(w, "Field", "Value")
	table.Append([]string{"ID", s.ID})
	table.Append([]string{"Sport type", s.SportTypeID})
	table.Append([]string{"Start", formatTime(s.StartTime)})
	table.Append([]string{"End", formatTime(s.EndTime)})
	table.Append([]string{"Duration", s.Duration.Round(time.Second).String()})
	table.Append([]string{"Distance", formatKm(s.Distance)})
	table.Append([]string{"Calories", fmt.Sprint(s.Calories)})
	table.Append([]string{"Elevation", fmt.Sprintf("+%d / -%d m", s.ElevationGain, s.ElevationLoss)})
	if s.StartLocation != nil {
		table.Append([]string{"Start location", fmt.Sprintf("%s, %s", s.StartLocation.Lat, s.StartLocation.Lon)})
	}
	if s.HasBounds() {
		b := s.Bounds
		center := b.Center()
		table.Append([]string{"Bounds", formatBounds(b)})
		table.Append([]string{"Center", fmt.Sprintf("%s, %s", center.Lat.Round(6), center.Lon.Round(6))})
		table.Append([]string{"Extent", fmt.Sprintf("%.2f km diagonal", geospatial.DiagonalKm(
			b.MinLat.InexactFloat64(), b.MinLon.InexactFloat64(),
			b.MaxLat.InexactFloat64(), b.MaxLon.InexactFloat64()))})
	} else {
		table.Append([]string{"Bounds", color.YellowString("none")})
	}
	table.Append([]string{"Track points", fmt.Sprint(s.TrackPoints)})
	table.Append([]string{"Heart rate", yesNo(s.HeartRate)})
	table.Append([]string{"Photos", fmt.Sprint(len(s.PhotoIDs))})
	if s.Notes != "" {
		table.Append([]string{"Notes", s.Notes})
	}
	table.Render()
}

func renderPhoto(w io.Writer, p *export.Photo) {
	table := newTable(w, "Photo", "Value")
	table.Append([]string{"ID", p.ID})
	table.Append([]string{"Session", p.SessionID})
	table.Append([]string{"Taken", formatTime(p.CreatedAt)})
	if p.Location != nil {
		table.Append([]string{"Location", fmt.Sprintf("%s, %s", p.Location.Lat, p.Location.Lon)})
	}
	if p.Description != "" {
		table.Append([]string{"Description", p.Description})
	}
	table.Render()
}

func renderUser(w io.Writer, u *export.User) {
	table := newTable(w, "Field", "Value")
	table.Append([]string{"Login", u.Login})
	table.Append([]string{"Name", u.Name()})
	table.Append([]string{"Mail", u.Email})
	if !u.Birthday.IsZero() {
		table.Append([]string{"Birthday", u.Birthday.Format("2006-01-02")})
	}
	table.Append([]string{"City", u.CityName})
	table.Append([]string{"Gender", u.Gender})
	table.Append([]string{"Height / weight", fmt.Sprintf("%s / %s", u.Height, u.Weight)})
	table.Append([]string{"Language", u.Language})
	table.Append([]string{"Created", formatTime(u.CreatedAt)})
	table.Append([]string{"Confirmed", formatTime(u.ConfirmedAt)})
	table.Append([]string{"Last sign-in", formatTime(u.LastSignInAt)})
	table.Append([]string{"Updated", formatTime(u.UpdatedAt)})
	table.Render()
}

func renderStats(w io.Writer, st *domain.SessionStats) {
	if st.LoadedFromPath != "" {
		fmt.Fprintf(w, "Export: %s\n\n", st.LoadedFromPath)
	}
	table := newTable(w, "Check", "Count")
	table.Append([]string{"Sessions", fmt.Sprint(st.Total)})
	table.Append([]string{"With track bounds", fmt.Sprint(st.WithBounds)})
	table.Append([]string{"Without track", warnCount(len(st.WithoutBounds))})
	table.Append([]string{"Zero distance", warnCount(len(st.ZeroDistance))})
	table.Append([]string{"With heart rate", fmt.Sprint(st.WithHeartRate)})
	table.Append([]string{"With photos", fmt.Sprintf("%d (%d photos)", st.WithPhotos, st.Photos)})
	table.Append([]string{"Total distance", formatKm(st.TotalDistance)})
	table.Append([]string{"Min / max distance", formatKm(st.MinDistance) + " / " + formatKm(st.MaxDistance)})
	table.Render()

	if len(st.WithoutBounds) > 0 {
		fmt.Fprintf(w, "\nWithout track: %s\n", strings.Join(st.WithoutBounds, ", "))
	}
	if len(st.ZeroDistance) > 0 {
		fmt.Fprintf(w, "Zero distance: %s\n", strings.Join(st.ZeroDistance, ", "))
	}
	if len(st.LoadErrors) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.RedString("%d files could not be read:", len(st.LoadErrors)))
		for _, e := range st.LoadErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func renderReport(w io.Writer, r *domain.Report) {
	fmt.Fprintf(w, "Tolerance: %s° (%.3f km)\n", r.Tolerance, r.ToleranceKm)
	fmt.Fprintf(w, "Sessions: %d (%d with track, %d without)\n",
		r.Sessions, r.Stats.WithBounds, len(r.Stats.WithoutBounds))
	fmt.Fprintf(w, "Single sessions: %d\n", len(r.SingleSessions))
	fmt.Fprintf(w, "Overlap groups: %s, %d overlaps, cluster size %d..%d\n",
		color.GreenString("%d", len(r.MultiSessions)), r.TotalOverlaps, r.MinClusterSize, r.MaxClusterSize)

	if len(r.MultiSessions) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, "Session", "Members", "Inner bound", "Outer bound")
		for _, g := range r.MultiSessions {
			inner := formatBounds(g.InnerBound)
			if !g.InnerBound.Valid() {
				inner = color.YellowString("disjoint")
			}
			table.Append([]string{g.SessionID, strings.Join(g.Members, ", "), inner, formatBounds(g.OuterBound)})
		}
		table.Render()
	}

	if r.CompoundGroups != nil {
		fmt.Fprintf(w, "\nCompound groups: %s\n", color.GreenString("%d", len(r.CompoundGroups)))
		if len(r.CompoundGroups) > 0 {
			table := newTable(w, "Session", "Touching sessions")
			for _, g := range r.CompoundGroups {
				table.Append([]string{g.SessionID, strings.Join(g.Members, ", ")})
			}
			table.Render()
		}
	}

	if len(r.Mismatches) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.YellowString("%d cluster size mismatches:", len(r.Mismatches)))
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  %s (%d) vs %s (%d)\n", m.SessionID, m.SessionSize, m.MemberID, m.MemberSize)
		}
	}
	if len(r.Stats.LoadErrors) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.RedString("%d files skipped", len(r.Stats.LoadErrors)))
	}
	fmt.Fprintf(w, "\nProcessed in %s\n", r.ProcessingDuration.Round(time.Millisecond))
}

func formatBounds(b *domain.GeoBounds) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprintf("lat %s..%s lon %s..%s", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func formatKm(meters int) string {
	return fmt.Sprintf("%.2f km", float64(meters)/1000)
}

func warnCount(n int) string {
	if n == 0 {
		return "0"
	}
	return color.YellowString("%d", n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
