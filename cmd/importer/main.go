package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/openvalley/strmatch-backend-go/internal/config"
	"github.com/openvalley/strmatch-backend-go/internal/database"
	"github.com/openvalley/strmatch-backend-go/internal/repository"
	"github.com/openvalley/strmatch-backend-go/internal/service"
)

func main() {
	var (
		parcelsFile   = flag.String("parcels", "", "parcel GeoJSON file to import")
		dwellingsFile = flag.String("dwellings", "", "dwelling hand-off JSON file to import")
		listingsFile  = flag.String("listings", "", "scraped listings JSON file to import")
		refresh       = flag.Bool("refresh", false, "recompute listing-to-parcel matches")
		rebuild       = flag.Bool("rebuild", false, "rebuild cached review state from the decision log")
		showStats     = flag.Bool("stats", false, "print review progress and inventory counts")
		watchDir      = flag.String("watch", "", "watch a drop directory and import new files as they land")
	)
	flag.Parse()

	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ingestService := service.NewIngestService(db, cfg.MatchRadiusM)
	reviewService := service.NewReviewService(db, cfg.Weights)
	statsService := service.NewStatsService(db)

	ran := false

	// Imports run in dependency order: parcels before the dwellings that
	// reference them, then listings, then the refresh that joins them.
	if *parcelsFile != "" {
		ran = true
		summary, err := ingestService.ImportParcels(*parcelsFile)
		if err != nil {
			log.Fatal("Parcel import failed:", err)
		}
		log.Printf("Parcels: %d created, %d updated, %d skipped", summary.Created, summary.Updated, summary.Skipped)
	}

	if *dwellingsFile != "" {
		ran = true
		summary, err := ingestService.ImportDwellings(*dwellingsFile)
		if err != nil {
			log.Fatal("Dwelling import failed:", err)
		}
		log.Printf("Dwellings: %d created, %d updated, %d skipped", summary.Created, summary.Updated, summary.Skipped)
	}

	if *listingsFile != "" {
		ran = true
		summary, err := ingestService.ImportListings(*listingsFile)
		if err != nil {
			log.Fatal("Listing import failed:", err)
		}
		log.Printf("Listings: %d created, %d updated, %d skipped", summary.Created, summary.Updated, summary.Skipped)
	}

	if *refresh {
		ran = true
		runRefresh(ingestService)
	}

	if *rebuild {
		ran = true
		n, err := reviewService.RebuildFromLog()
		if err != nil {
			log.Fatal("Rebuild failed:", err)
		}
		log.Printf("Review state rebuilt from decision log: %d listings restored", n)
	}

	if *showStats {
		ran = true
		printStats(statsService, repository.NewDecisionRepository(db))
	}

	if *watchDir != "" {
		ran = true
		watch(*watchDir, ingestService)
	}

	if !ran {
		flag.Usage()
		os.Exit(2)
	}
}

func runRefresh(svc *service.IngestService) {
	summary, err := svc.RefreshMatches()
	if err != nil {
		log.Fatal("Match refresh failed:", err)
	}
	log.Printf("Matches: %d matched, %d unmatched, %d manual kept", summary.Matched, summary.Unmatched, summary.Manual)
	for method, n := range summary.ByMethod {
		log.Printf("  %s: %d", method, n)
	}
}

func printStats(statsService *service.StatsService, decisions *repository.DecisionRepository) {
	review, err := statsService.GetReviewStats()
	if err != nil {
		log.Fatal("Failed to get review stats:", err)
	}
	dashboard, err := statsService.GetDashboardStats()
	if err != nil {
		log.Fatal("Failed to get dashboard stats:", err)
	}
	decided, err := decisions.Count()
	if err != nil {
		log.Fatal("Failed to count decisions:", err)
	}

	fmt.Printf("Parcels:    %d (assessed $%d)\n", dashboard.Parcels.Total, dashboard.Parcels.TotalAssessedValue)
	fmt.Printf("Dwellings:  %d (%d homestead, %d linked)\n",
		dashboard.Dwellings.Total, dashboard.Dwellings.Homestead, dashboard.Listings.LinkedDwellings)
	fmt.Printf("Listings:   %d (%d active, %d matched to parcel)\n",
		review.TotalListings, dashboard.Listings.Active, review.MatchedToParcel)
	fmt.Printf("Review:     %d unreviewed / %d confirmed / %d rejected / %d skipped (%.1f%% complete)\n",
		review.Unreviewed, review.Confirmed, review.Rejected, review.Skipped, review.CompletionPercent)
	fmt.Printf("Decisions:  %d log entries\n", decided)
}

// watch imports files dropped into dir. File kind is inferred from the
// name; every successful import triggers a match refresh so the queue is
// current by the time curators see it.
func watch(dir string, svc *service.IngestService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal("Failed to create watcher:", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.Fatal("Failed to watch directory:", err)
	}

	log.Printf("Watching %s for data drops", dir)
	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if handleDrop(svc, evt.Name) {
				runRefresh(svc)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watch error: %v", err)
		}
	}
}

// handleDrop routes a dropped file to the right importer and reports
// whether anything was imported.
func handleDrop(svc *service.IngestService, path string) bool {
	name := strings.ToLower(filepath.Base(path))

	var summary *service.ImportSummary
	var err error
	switch {
	case strings.HasSuffix(name, ".geojson") || strings.Contains(name, "parcel"):
		summary, err = svc.ImportParcels(path)
	case strings.Contains(name, "dwelling"):
		summary, err = svc.ImportDwellings(path)
	case strings.HasSuffix(name, ".json"):
		summary, err = svc.ImportListings(path)
	default:
		return false
	}

	if err != nil {
		log.Printf("Import of %s failed: %v", name, err)
		return false
	}
	log.Printf("Imported %s: %d created, %d updated, %d skipped", name, summary.Created, summary.Updated, summary.Skipped)
	return true
}
