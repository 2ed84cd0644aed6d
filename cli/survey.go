// ABOUTME: Survey subcommands driving the wizard from the command line
// ABOUTME: Start, edit, navigate, validate, submit and discard the active draft
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/markahope-aag/hazardos-sub000/draft"
	"github.com/markahope-aag/hazardos-sub000/hazards"
	"github.com/markahope-aag/hazardos-sub000/models"
	"github.com/markahope-aag/hazardos-sub000/validation"
	"github.com/markahope-aag/hazardos-sub000/wizard"
)

// withDraft opens the active draft, applies fn, lets background uploads settle and
// saves whatever changed. A failed remote sync is reported but does not fail the command.
func (a *App) withDraft(ctx context.Context, fn func(s *Session) error) error {
	s, err := a.OpenActive(ctx)
	if err != nil {
		return err
	}
	defer s.Queue.Close()

	fnErr := fn(s)
	s.Ctrl.Wait()
	if !s.Ctrl.Store().IsDirty() {
		return fnErr
	}
	if err := s.Ctrl.Save(ctx); err != nil {
		if s.Ctrl.Store().IsDirty() {
			return errors.Join(fnErr, err)
		}
		a.printf("! Saved locally; remote sync failed: %s\n", s.Ctrl.SyncError())
	}
	return fnErr
}

// SurveyNewCommand starts a new draft and makes it active.
func SurveyNewCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey new", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer ID the survey belongs to")
	_ = fs.Parse(args)

	ctx := context.Background()
	s, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	id := s.Ctrl.NewSurvey(*customer)
	if err := s.Ctrl.Save(ctx); err != nil && s.Ctrl.Store().IsDirty() {
		return fmt.Errorf("failed to save new survey: %w", err)
	}
	if err := app.Cache.SetActiveDraft(id); err != nil {
		return fmt.Errorf("failed to set active survey: %w", err)
	}

	app.printf("✓ Started survey: %s\n", id)
	if *customer != "" {
		app.printf("  Customer: %s\n", *customer)
	}
	app.printf("  Section:  %s\n", models.SectionOrder[0].Title())
	return nil
}

// SurveyListCommand lists cached drafts and marks the active one.
func SurveyListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey list", flag.ExitOnError)
	_ = fs.Parse(args)

	ids, err := app.Cache.ListDrafts()
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(ids) == 0 {
		app.printf("No cached surveys\n")
		return nil
	}
	active, err := app.Cache.ActiveDraft()
	if err != nil {
		return err
	}

	app.printf("%-2s %-36s %-12s %-20s %s\n", "", "SURVEY", "SECTION", "ADDRESS", "LAST SAVED")
	for _, id := range ids {
		marker := ""
		if id == active {
			marker = "*"
		}
		data, err := app.Cache.LoadDraft(id)
		if err != nil {
			app.printf("%-2s %-36s (unreadable: %v)\n", marker, id, err)
			continue
		}
		d, err := draft.Decode(data)
		if err != nil {
			app.printf("%-2s %-36s (unreadable: %v)\n", marker, id, err)
			continue
		}
		saved := "never"
		if d.LastSavedAt != nil {
			saved = d.LastSavedAt.Local().Format("2006-01-02 15:04")
		}
		app.printf("%-2s %-36s %-12s %-20s %s\n", marker, id, d.CurrentSection, truncate(d.Property.Address, 20), saved)
	}
	return nil
}

// SurveyUseCommand makes a cached draft active.
func SurveyUseCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey use", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: hazardos survey use <survey-id>")
	}
	id := fs.Arg(0)
	if _, err := app.Cache.LoadDraft(id); err != nil {
		return fmt.Errorf("survey %s is not cached: %w", id, err)
	}
	if err := app.Cache.SetActiveDraft(id); err != nil {
		return err
	}
	app.printf("✓ Active survey: %s\n", id)
	return nil
}

// SurveyShowCommand prints the active draft section by section.
func SurveyShowCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey show", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	s, err := app.OpenActive(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.Ctrl.Status()
	snap := s.Ctrl.Store().Snapshot()
	all := validation.All(snap)

	app.printf("Survey %s\n", st.SurveyID)
	app.printf("  Section:   %s (%d of %d)\n", st.Section.Title(), st.Position.Index+1, st.Position.Total)
	if snap.CustomerID != nil {
		app.printf("  Customer:  %s\n", *snap.CustomerID)
	}
	if snap.StartedAt != nil {
		app.printf("  Started:   %s\n", snap.StartedAt.Local().Format(time.RFC1123))
	}
	if st.LastSavedAt != nil {
		app.printf("  Saved:     %s\n", st.LastSavedAt.Local().Format(time.RFC1123))
	}
	printSyncLine(app, st)
	app.printf("\n")

	p := snap.Property
	app.printf("%s Property: %s, %s, %s %s\n", mark(all[models.SectionProperty]), p.Address, p.City, p.State, p.Zip)
	if p.YearBuilt != nil {
		app.printf("    Year built: %d\n", *p.YearBuilt)
	}
	if p.BuildingType != nil {
		app.printf("    Building:   %s\n", *p.BuildingType)
	}
	app.printf("%s Access\n", mark(all[models.SectionAccess]))
	app.printf("%s Environment\n", mark(all[models.SectionEnvironment]))

	h := snap.Hazards
	types := make([]string, 0, len(h.Types))
	for _, t := range h.Types {
		types = append(types, string(t))
	}
	app.printf("%s Hazards: %s\n", mark(all[models.SectionHazards]), strings.Join(types, ", "))
	if h.Asbestos != nil {
		for _, m := range h.Asbestos.Materials {
			app.printf("    [%s] %s %.2f %s at %s (%s, friable=%v)\n", m.ID, m.MaterialType, m.Quantity, m.Unit, m.Location, m.Condition, m.Friable)
		}
	}
	if h.Mold != nil {
		for _, ar := range h.Mold.AffectedAreas {
			app.printf("    [%s] mold %.2f sq ft at %s\n", ar.ID, ar.SquareFootage, ar.Location)
		}
	}
	if h.Lead != nil {
		for _, c := range h.Lead.Components {
			app.printf("    [%s] %s %.2f %s at %s\n", c.ID, c.ComponentType, c.Quantity, c.Unit, c.Location)
		}
	}

	exterior := 0
	for _, ph := range snap.Photos {
		if ph.Category == models.PhotoExterior {
			exterior++
		}
	}
	app.printf("%s Photos: %d total, %d exterior\n", mark(all[models.SectionPhotos]), len(snap.Photos), exterior)
	app.printf("%s Review\n", mark(all[models.SectionReview]))
	if snap.Notes != "" {
		app.printf("    Notes: %s\n", snap.Notes)
	}
	return nil
}

func printSyncLine(app *App, st wizard.Status) {
	state := "online"
	if !st.Online {
		state = "offline"
	}
	app.printf("  Network:   %s\n", state)
	app.printf("  Photos:    %d uploaded, %d pending, %d failed\n", st.UploadedPhotos, st.PendingPhotos, st.FailedPhotos)
	if st.SubmitPending {
		app.printf("  Submit:    waiting for connection\n")
	}
	if st.SyncError != "" {
		app.printf("  Error:     %s\n", st.SyncError)
	}
}

func mark(v models.SectionValidation) string {
	if v.IsValid {
		return "✓"
	}
	return "✗"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// SurveySetCommand merges values into one section of the active draft.
func SurveySetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey set", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() < 2 {
		return errors.New("usage: hazardos survey set <section> key=value... | '<json>'")
	}
	section, err := models.ParseSection(fs.Arg(0))
	if err != nil {
		return err
	}
	patch, err := parsePatch(section, fs.Args()[1:])
	if err != nil {
		return err
	}

	return app.withDraft(context.Background(), func(s *Session) error {
		if err := s.Ctrl.Store().PatchSection(section, patch); err != nil {
			return err
		}
		v := validation.Section(s.Ctrl.Store().Snapshot(), section)
		s.Ctrl.Store().SetValidation(section, v)
		app.printf("✓ Updated %s\n", section.Title())
		printErrors(app, v)
		return nil
	})
}

func printErrors(app *App, v models.SectionValidation) {
	for _, e := range v.Errors {
		app.printf("  - %s\n", e)
	}
}

// SurveyGotoCommand moves the wizard: next, back, or a section name.
func SurveyGotoCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey goto", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: hazardos survey goto <next|back|section>")
	}

	return app.withDraft(context.Background(), func(s *Session) error {
		var pos wizard.Position
		switch target := fs.Arg(0); target {
		case "next":
			var v models.SectionValidation
			pos, v = s.Ctrl.Next()
			printErrors(app, v)
		case "back":
			pos = s.Ctrl.Back()
		default:
			section, err := models.ParseSection(target)
			if err != nil {
				return err
			}
			if pos, err = s.Ctrl.JumpTo(section); err != nil {
				return err
			}
		}
		app.printf("✓ Section: %s (%d of %d)\n", pos.Section.Title(), pos.Index+1, pos.Total)
		return nil
	})
}

// SurveyHazardCommand selects hazard types.
func SurveyHazardCommand(app *App, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hazardos survey hazard <toggle|set|other> ...")
	}
	sub, rest := args[0], args[1:]

	return app.withDraft(context.Background(), func(s *Session) error {
		store := s.Ctrl.Store()
		switch sub {
		case "toggle":
			if len(rest) != 1 {
				return errors.New("usage: hazardos survey hazard toggle <type>")
			}
			if err := store.ToggleHazardType(models.HazardType(strings.ToLower(rest[0]))); err != nil {
				return err
			}
		case "set":
			types, err := parseHazards(strings.Join(rest, ","))
			if err != nil {
				return err
			}
			if err := store.SetHazardTypes(types); err != nil {
				return err
			}
		case "other":
			if err := store.SetOtherDescription(strings.Join(rest, " ")); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown hazard command: %s", sub)
		}

		h := store.Hazards()
		names := make([]string, 0, len(h.Types))
		for _, t := range h.Types {
			names = append(names, string(t))
		}
		app.printf("✓ Hazards: %s\n", strings.Join(names, ", "))
		return nil
	})
}

// SurveyMaterialCommand adds or removes asbestos materials.
func SurveyMaterialCommand(app *App, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hazardos survey material <add|remove> ...")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("survey material add", flag.ExitOnError)
		materialType := fs.String("type", "", "Material type (e.g. pipe_insulation)")
		quantity := fs.Float64("quantity", 0, "Quantity")
		unit := fs.String("unit", string(models.UnitSquareFeet), "Unit: sq_ft, linear_ft, cu_ft, each")
		location := fs.String("location", "", "Where the material is")
		condition := fs.String("condition", string(models.ConditionGood), "good, minor_damage, significant_damage, severe_damage")
		friable := fs.Bool("friable", false, "Material is friable")
		notes := fs.String("notes", "", "Notes")
		_ = fs.Parse(args[1:])
		if *quantity < 0 {
			return errors.New("quantity must not be negative")
		}

		return app.withDraft(context.Background(), func(s *Session) error {
			id, err := s.Ctrl.Store().AddMaterial(models.AsbestosMaterial{
				MaterialType: *materialType,
				Quantity:     *quantity,
				Unit:         models.MaterialUnit(*unit),
				Location:     *location,
				Condition:    models.MaterialCondition(*condition),
				Friable:      *friable,
				Notes:        *notes,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Added material: %s\n", id)
			printAsbestos(app, s.Ctrl.Store().Hazards())
			return nil
		})
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: hazardos survey material remove <id>")
		}
		return app.withDraft(context.Background(), func(s *Session) error {
			if err := s.Ctrl.Store().RemoveMaterial(args[1]); err != nil {
				return err
			}
			app.printf("✓ Removed material: %s\n", args[1])
			return nil
		})
	}
	return fmt.Errorf("unknown material command: %s", args[0])
}

// SurveyAreaCommand adds or removes mold affected areas.
func SurveyAreaCommand(app *App, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hazardos survey area <add|remove> ...")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("survey area add", flag.ExitOnError)
		location := fs.String("location", "", "Where the growth is")
		sqft := fs.Float64("sqft", 0, "Affected square footage")
		material := fs.String("material", "", "Affected material")
		severity := fs.String("severity", "", "Severity")
		_ = fs.Parse(args[1:])
		if *sqft < 0 {
			return errors.New("square footage must not be negative")
		}

		return app.withDraft(context.Background(), func(s *Session) error {
			id, err := s.Ctrl.Store().AddAffectedArea(models.MoldAffectedArea{
				Location:      *location,
				SquareFootage: *sqft,
				MaterialType:  *material,
				Severity:      *severity,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Added affected area: %s\n", id)
			printMold(app, s.Ctrl.Store().Hazards())
			return nil
		})
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: hazardos survey area remove <id>")
		}
		return app.withDraft(context.Background(), func(s *Session) error {
			if err := s.Ctrl.Store().RemoveAffectedArea(args[1]); err != nil {
				return err
			}
			app.printf("✓ Removed affected area: %s\n", args[1])
			return nil
		})
	}
	return fmt.Errorf("unknown area command: %s", args[0])
}

// SurveyComponentCommand adds or removes lead components.
func SurveyComponentCommand(app *App, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hazardos survey component <add|remove> ...")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("survey component add", flag.ExitOnError)
		componentType := fs.String("type", "", "Component type (e.g. interior_walls)")
		location := fs.String("location", "", "Where the component is")
		quantity := fs.Float64("quantity", 0, "Quantity")
		unit := fs.String("unit", string(models.UnitSquareFeet), "Unit: sq_ft, linear_ft, cu_ft, each")
		condition := fs.String("condition", "", "Paint condition")
		_ = fs.Parse(args[1:])
		if *quantity < 0 {
			return errors.New("quantity must not be negative")
		}

		return app.withDraft(context.Background(), func(s *Session) error {
			id, err := s.Ctrl.Store().AddLeadComponent(models.LeadComponent{
				ComponentType: *componentType,
				Location:      *location,
				Quantity:      *quantity,
				Unit:          models.MaterialUnit(*unit),
				Condition:     *condition,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Added component: %s\n", id)
			printLead(app, s.Ctrl.Store().Snapshot())
			return nil
		})
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: hazardos survey component remove <id>")
		}
		return app.withDraft(context.Background(), func(s *Session) error {
			if err := s.Ctrl.Store().RemoveLeadComponent(args[1]); err != nil {
				return err
			}
			app.printf("✓ Removed component: %s\n", args[1])
			return nil
		})
	}
	return fmt.Errorf("unknown component command: %s", args[0])
}

// SurveyPhotoCommand captures, removes, retries and lists photos.
func SurveyPhotoCommand(app *App, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hazardos survey photo <add|remove|retry|list> ...")
	}
	ctx := context.Background()
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("survey photo add", flag.ExitOnError)
		category := fs.String("category", string(models.PhotoExterior), "exterior, interior, hazard, damage, other")
		location := fs.String("location", "", "Where the photo was taken")
		caption := fs.String("caption", "", "Caption")
		gps := fs.String("gps", "", "Coordinates as lat,lon")
		_ = fs.Parse(args[1:])
		if fs.NArg() != 1 {
			return errors.New("usage: hazardos survey photo add <file> [--category ...]")
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
		coords, err := parseGPS(*gps)
		if err != nil {
			return err
		}

		return app.withDraft(ctx, func(s *Session) error {
			p, err := s.Ctrl.AddPhoto(ctx, models.PhotoRecord{
				Data:     data,
				GPS:      coords,
				Category: models.PhotoCategory(*category),
				Location: *location,
				Caption:  *caption,
			})
			if err != nil {
				return err
			}
			app.printf("✓ Added photo: %s (%s, %d bytes)\n", p.ID, p.Category, len(data))
			if !s.Monitor.Online() {
				app.printf("  Offline: upload queued\n")
			}
			return nil
		})
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: hazardos survey photo remove <id>")
		}
		return app.withDraft(ctx, func(s *Session) error {
			if err := s.Ctrl.RemovePhoto(ctx, args[1]); err != nil {
				return err
			}
			app.printf("✓ Removed photo: %s\n", args[1])
			return nil
		})
	case "retry":
		if len(args) != 2 {
			return errors.New("usage: hazardos survey photo retry <id>")
		}
		return app.withDraft(ctx, func(s *Session) error {
			if err := s.Ctrl.RetryPhoto(ctx, args[1]); err != nil {
				return err
			}
			app.printf("✓ Retrying upload: %s\n", args[1])
			return nil
		})
	case "list":
		s, err := app.OpenActive(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		id, _ := s.Ctrl.Store().SurveyID()
		for _, p := range s.Ctrl.Store().Photos() {
			state := "local"
			if e, ok := s.Queue.Entry(id, p.ID); ok {
				state = string(e.State)
				if e.LastError != "" {
					state += ": " + e.LastError
				}
			} else if p.IsUploaded() {
				state = "uploaded"
			}
			app.printf("%-36s %-9s %-20s %s\n", p.ID, p.Category, truncate(p.Location, 20), state)
		}
		return nil
	}
	return fmt.Errorf("unknown photo command: %s", args[0])
}

// SurveyValidateCommand recomputes thresholds and validates every section.
func SurveyValidateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey validate", flag.ExitOnError)
	_ = fs.Parse(args)

	return app.withDraft(context.Background(), func(s *Session) error {
		all := s.Ctrl.Validate()
		for _, section := range models.SectionOrder {
			v := all[section]
			app.printf("%s %s\n", mark(v), section.Title())
			printErrors(app, v)
		}
		if invalid := validation.Invalid(all); len(invalid) > 0 {
			app.printf("\n%d section(s) incomplete\n", len(invalid))
		} else {
			app.printf("\n✓ Ready to submit\n")
		}
		return nil
	})
}

// SurveyThresholdsCommand prints the derived regulatory values for each selected hazard.
func SurveyThresholdsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey thresholds", flag.ExitOnError)
	_ = fs.Parse(args)

	s, err := app.OpenActive(context.Background())
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.Ctrl.Store().Snapshot()
	if len(snap.Hazards.Types) == 0 {
		app.printf("No hazards selected\n")
		return nil
	}
	printAsbestos(app, snap.Hazards)
	printMold(app, snap.Hazards)
	printLead(app, snap)
	return nil
}

func printAsbestos(app *App, h models.HazardsData) {
	if h.Asbestos == nil {
		return
	}
	r := hazards.CalculateAsbestos(h.Asbestos.Materials)
	app.printf("Asbestos\n")
	app.printf("  Square feet:       %.2f\n", r.TotalSqFt)
	app.printf("  Linear feet:       %.2f\n", r.TotalLinearFt)
	app.printf("  Containment:       %d (%s)\n", r.ContainmentLevel, r.ContainmentLevel)
	app.printf("  EPA notification:  %v\n", r.EPANotificationRequired)
	app.printf("  Waste volume:      %.2f cu ft\n", r.EstimatedWasteVolume)
}

func printMold(app *App, h models.HazardsData) {
	if h.Mold == nil {
		return
	}
	hvac := h.Mold.HVACContaminated != nil && *h.Mold.HVACContaminated
	r := hazards.CalculateMold(h.Mold.AffectedAreas, hvac)
	app.printf("Mold\n")
	app.printf("  Square feet:       %.2f\n", r.TotalSqFt)
	app.printf("  Size category:     %s\n", r.SizeCategory)
}

func printLead(app *App, d models.SurveyDraft) {
	if d.Hazards.Lead == nil {
		return
	}
	r := hazards.CalculateLead(d.Hazards.Lead.Components, d.Property.YearBuilt)
	app.printf("Lead\n")
	app.printf("  Pre-1978:          %v\n", r.IsPre1978)
	app.printf("  Work area:         %.2f sq ft\n", r.TotalWorkArea)
	app.printf("  RRP rule applies:  %v\n", r.RRPRuleApplies)
	if r.WorkMethod != "" {
		app.printf("  Work method:       %s\n", r.WorkMethod)
	}
}

// SurveySubmitCommand runs the submission protocol for the active draft.
func SurveySubmitCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey submit", flag.ExitOnError)
	timeout := fs.Duration("timeout", 0, "How long to wait for photo uploads (default from config)")
	_ = fs.Parse(args)
	if *timeout > 0 {
		app.Config.SubmitTimeout = *timeout
	}

	ctx := context.Background()
	s, err := app.OpenActive(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	res := s.Ctrl.Submit(ctx)
	printSubmitResult(app, res)
	if res.OK() {
		return nil
	}
	return res.Err
}

func printSubmitResult(app *App, res wizard.SubmitResult) {
	if res.OK() {
		app.printf("✓ %s\n", res.Message)
	} else {
		app.printf("✗ %s\n", res.Message)
	}
	if res.SurveyID != "" {
		app.printf("  Survey:  %s\n", res.SurveyID)
	}
	for _, section := range res.InvalidSections {
		app.printf("  - %s section is incomplete\n", section.Title())
	}
	if res.FailedPhotos > 0 {
		app.printf("  Failed photos:  %d (run 'hazardos survey photo retry <id>')\n", res.FailedPhotos)
	}
	if res.PendingPhotos > 0 {
		app.printf("  Pending photos: %d\n", res.PendingPhotos)
	}
}

// SurveyDiscardCommand drops the active draft and its queued photos.
func SurveyDiscardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("survey discard", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm discarding the draft")
	_ = fs.Parse(args)

	if !*confirm {
		app.printf("This permanently deletes the active survey draft and its unsent photos.\n")
		app.printf("To proceed, run: hazardos survey discard --confirm\n")
		return nil
	}

	ctx := context.Background()
	s, err := app.OpenActive(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	id, _ := s.Ctrl.Store().SurveyID()
	if err := s.Ctrl.Discard(ctx); err != nil {
		return fmt.Errorf("failed to discard survey: %w", err)
	}
	app.printf("✓ Discarded survey: %s\n", id)
	return nil
}
