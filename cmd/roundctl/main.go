// Command roundctl drives the competition from a terminal: it opens and
// closes submissions, advances the album under ranking and starts rounds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Shoshak/album-ranking-v2/internal/config"
	database "github.com/Shoshak/album-ranking-v2/internal/db"
	"github.com/Shoshak/album-ranking-v2/internal/models"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

const usage = `usage: roundctl <command> [args]

commands:
  show                 print the config and the album open for ranking
  open                 open submissions
  close                close submissions
  next                 open the next album of the round for ranking
  round N              start round N (order number back to 1)
  set [flags]          patch config fields, see "roundctl set -h"
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	db := database.New(cfg)
	defer db.Close()
	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := database.SeedConfig(db.DB); err != nil {
		log.Fatalf("❌ Failed to seed config: %v", err)
	}

	ctl := rounds.NewController(db.DB, nil)
	if err := run(context.Background(), ctl, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("❌ %s: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, ctl *rounds.Controller, cmd string, args []string) error {
	var (
		cfg models.Config
		err error
	)
	switch cmd {
	case "show":
		cfg, err = ctl.Get(ctx)
	case "open":
		cfg, err = ctl.Update(ctx, rounds.ConfigPatch{SubmissionsOpen: ptr(true)})
	case "close":
		cfg, err = ctl.Update(ctx, rounds.ConfigPatch{SubmissionsOpen: ptr(false)})
	case "next":
		cfg, err = ctl.Advance(ctx)
	case "round":
		if len(args) != 1 {
			return fmt.Errorf("expected a round number")
		}
		n, perr := strconv.Atoi(args[0])
		if perr != nil {
			return fmt.Errorf("invalid round %q", args[0])
		}
		cfg, err = ctl.StartRound(ctx, n)
	case "set":
		patch, perr := parsePatch(args)
		if perr != nil {
			return perr
		}
		cfg, err = ctl.Update(ctx, patch)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		return err
	}
	return show(ctx, ctl, cfg)
}

// parsePatch turns only the flags given on the command line into patch fields.
func parsePatch(args []string) (rounds.ConfigPatch, error) {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	round := fs.Int("round", 0, "current round")
	order := fs.Int("order", 0, "current order number")
	quota := fs.Int("max-submissions", 0, "albums per user per round")
	open := fs.Bool("open", false, "submissions open")
	maxDuration := fs.String("max-duration", "", "longest album, HH:MM:SS")
	maxTracks := fs.Int("max-tracks", 0, "most tracks per album")
	minTracks := fs.Int("min-tracks", 0, "fewest tracks per album")
	if err := fs.Parse(args); err != nil {
		return rounds.ConfigPatch{}, err
	}

	var (
		patch rounds.ConfigPatch
		err   error
	)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "round":
			patch.CurrentRound = round
		case "order":
			patch.CurrentOrderNumber = order
		case "max-submissions":
			patch.MaxSubmissions = quota
		case "open":
			patch.SubmissionsOpen = open
		case "max-duration":
			var d models.Duration
			if d, err = models.ParseDuration(*maxDuration); err == nil {
				patch.MaxDuration = &d
			}
		case "max-tracks":
			patch.MaxTracks = maxTracks
		case "min-tracks":
			patch.MinTracks = minTracks
		}
	})
	return patch, err
}

type configView struct {
	CurrentRound       int    `yaml:"current_round"`
	CurrentOrderNumber int    `yaml:"current_order_number"`
	SubmissionsOpen    bool   `yaml:"submissions_open"`
	MaxSubmissions     int    `yaml:"max_submissions"`
	MaxDuration        string `yaml:"max_duration"`
	MinTracks          int    `yaml:"min_tracks"`
	MaxTracks          int    `yaml:"max_tracks"`
	RankingNow         string `yaml:"ranking_now,omitempty"`
}

func show(ctx context.Context, ctl *rounds.Controller, cfg models.Config) error {
	view := configView{
		CurrentRound:       cfg.CurrentRound,
		CurrentOrderNumber: cfg.CurrentOrderNumber,
		SubmissionsOpen:    cfg.SubmissionsOpen,
		MaxSubmissions:     cfg.MaxSubmissions,
		MaxDuration:        cfg.MaxDuration.String(),
		MinTracks:          cfg.MinTracks,
		MaxTracks:          cfg.MaxTracks,
	}
	if album, err := ctl.CurrentAlbum(ctx); err == nil {
		view.RankingNow = fmt.Sprintf("%s - %s (#%d)", album.Artist, album.Name, album.ID)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(view)
}

func ptr[T any](v T) *T { return &v }
