package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/overpass.report/internal/config"
	"github.com/banshee-data/overpass.report/internal/dataset"
	"github.com/banshee-data/overpass.report/internal/ephem"
	"github.com/banshee-data/overpass.report/internal/export"
	"github.com/banshee-data/overpass.report/internal/monitoring"
	"github.com/banshee-data/overpass.report/internal/overpass"
	"github.com/banshee-data/overpass.report/internal/units"
	"github.com/banshee-data/overpass.report/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to pipeline config JSON (optional)")
	tlePath      = flag.String("tle", "", "Path to TLE or 3LE file")
	siteSpec     = flag.String("site", "0,0,0", "Observer site as lat,lon,alt_m")
	horizonHours = flag.Float64("horizon-hours", 0, "Run horizon in hours (0 = config default)")
	stepSeconds  = flag.Float64("step", 0, "Sample spacing in seconds (0 = config default)")
	countrySel   = flag.String("country", "*", "Country selector: * for all land, or an exact label")
	poiFilter    = flag.String("poi", "", "Restrict the POI selector to one POI name")
	outPath      = flag.String("out", "poi_picks.csv", "POI export path")
	territoryOut = flag.String("territory-out", "", "Territory export path (optional)")
	outFormat    = flag.String("format", "csv", "Export format: csv or txt")
	rangeUnits   = flag.String("range-units", units.KM, "Range units for the summary log: "+units.GetValidUnitsString())
	verbose      = flag.Bool("v", false, "Enable trace logging")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func parseSite(spec string) (ephem.ObserverSite, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return ephem.ObserverSite{}, fmt.Errorf("site must be lat,lon,alt_m, got %q", spec)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ephem.ObserverSite{}, fmt.Errorf("site component %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return ephem.ObserverSite{LatDeg: vals[0], LonDeg: vals[1], AltM: vals[2]}, nil
}

func jdNow() float64 {
	t := time.Now().UTC()
	return ephem.UTCToJD(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if !units.IsValid(*rangeUnits) {
		log.Fatalf("invalid range units %q (want %s)", *rangeUnits, units.GetValidUnitsString())
	}

	if *tlePath == "" {
		log.Fatal("a TLE file is required (-tle)")
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	streams := monitoring.DefaultStreams()
	if *verbose {
		streams = monitoring.Verbose()
	}
	ephem.SetLogWriters(streams.Ops, streams.Diag, streams.Trace)
	overpass.SetLogWriters(streams.Ops, streams.Diag, streams.Trace)

	site, err := parseSite(*siteSpec)
	if err != nil {
		log.Fatalf("invalid site: %v", err)
	}

	tle, err := ephem.ReadTLEFile(*tlePath)
	if err != nil {
		log.Fatalf("failed to read TLE: %v", err)
	}

	territories, err := dataset.LoadTerritoryCSV(cfg.GetTerritoryCSV(), cfg.GetGridCellDeg())
	if err != nil {
		log.Fatalf("failed to load territory dataset: %v", err)
	}
	pois, err := dataset.LoadPoiCSV(cfg.GetPoiCSV(), cfg.GetGridCellDeg())
	if err != nil {
		log.Fatalf("failed to load POI dataset: %v", err)
	}
	monitoring.Logf("loaded %d territory tiles, %d poi tiles", len(territories.Tiles), len(pois.Tiles))

	horizonH := cfg.GetHorizonHours()
	if *horizonHours > 0 {
		horizonH = *horizonHours
	}
	stepS := cfg.GetStepSeconds()
	if *stepSeconds > 0 {
		stepS = *stepSeconds
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe := overpass.NewPipeline(territories, pois)
	pipe.Status = &overpass.RunStatus{
		Elapsed: func(seconds int) {
			if seconds%60 == 0 {
				monitoring.Logf("run in progress: %ds elapsed", seconds)
			}
		},
	}

	result, err := pipe.Run(ctx, overpass.RunRequest{
		State: tle.NewSatState(),
		Params: ephem.RunParams{
			JDNow:      jdNow(),
			HorizonSec: horizonH * 3600,
			StepSec:    stepS,
			Site:       site,
		},
		CountrySelector: *countrySel,
		PoiNameFilter:   *poiFilter,
		PoiWorkers:      cfg.GetPoiWorkers(),
		GapMarkerSec:    cfg.GetGapMarkerSeconds(),
		ChunkSize:       cfg.GetStreamChunk(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			monitoring.Logf("run cancelled")
			os.Exit(130)
		}
		log.Fatalf("run failed: %v", err)
	}

	var meta *export.Meta
	if cfg.GetEmitMetaHeader() {
		id := tle.Name
		if id == "" {
			id = filepath.Base(*tlePath)
		}
		meta = &export.Meta{TLE: id, StepS: int(stepS), HorizonH: int(horizonH)}
	}

	switch *outFormat {
	case "csv":
		err = export.WritePoiCSV(*outPath, meta, result.Picks)
	case "txt":
		err = export.WritePoiTXT(*outPath, result.Picks)
	default:
		log.Fatalf("unknown format %q (want csv or txt)", *outFormat)
	}
	if err != nil {
		log.Fatalf("failed to write POI export: %v", err)
	}

	if *territoryOut != "" {
		switch *outFormat {
		case "csv":
			err = export.WriteTerritoryCSV(*territoryOut, meta, result.Territories)
		case "txt":
			err = export.WriteTerritoryTXT(*territoryOut, result.Territories)
		}
		if err != nil {
			log.Fatalf("failed to write territory export: %v", err)
		}
	}

	sum := result.Summary
	monitoring.Logf("run %s complete: %d samples, %.1f%% over land, %d poi picks",
		sum.RunID, sum.Samples, 100*sum.LandFraction, sum.PoiMatches)
	if sum.PoiMatches > 0 {
		closest := result.Picks[0]
		for _, p := range result.Picks[1:] {
			if p.RangeKm < closest.RangeKm {
				closest = p
			}
		}
		monitoring.Logf("closest approach: %s at %.3f %s bearing %.1f° (%s)",
			closest.Name, units.ConvertRange(closest.RangeKm, *rangeUnits), *rangeUnits,
			closest.AzimuthDeg, units.CompassPoint(closest.AzimuthDeg))
	}
}
