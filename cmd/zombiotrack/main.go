// Package main is the zombiotrack terminal client. Each subcommand loads a
// session's state document, performs one operation through the simulation
// engine, and saves the document back.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/zombiotrack/zombiotrack/internal/cli"
	"github.com/zombiotrack/zombiotrack/internal/config"
	"github.com/zombiotrack/zombiotrack/internal/engine"
	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/infra/statefile"
	"github.com/zombiotrack/zombiotrack/internal/session"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: zombiotrack <command> [flags]

Commands:
  configure     Create a new session from a building configuration
  step          Advance the simulation one turn
  run           Advance the simulation several turns
  grid          Render the building grid
  state         Print the raw state document
  clean         Remove all zombies from a room
  block         Block a room
  unblock       Unblock a room
  reset-sensor  Reset a room's sensor to normal
  resize        Change the building's floor and room counts
  reset         Reset the simulation to turn zero
  interactive   Launch the interactive menu loop

Run 'zombiotrack <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "configure":
		err = runConfigure(os.Args[2:])
	case "step":
		err = runStep(os.Args[2:], 1)
	case "run":
		err = runMany(os.Args[2:])
	case "grid":
		err = runGrid(os.Args[2:])
	case "state":
		err = runState(os.Args[2:])
	case "clean":
		err = runRoomCommand(os.Args[2:], "clean")
	case "block":
		err = runRoomCommand(os.Args[2:], "block")
	case "unblock":
		err = runRoomCommand(os.Args[2:], "unblock")
	case "reset-sensor":
		err = runRoomCommand(os.Args[2:], "reset-sensor")
	case "resize":
		err = runResize(os.Args[2:])
	case "reset":
		err = runReset(os.Args[2:])
	case "interactive":
		err = runInteractive(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// multiFlag collects repeatable string flags.
type multiFlag []string

func (m *multiFlag) String() string     { return fmt.Sprint(*m) }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// sessionFlags are shared by every command that touches a saved session.
type sessionFlags struct {
	sessionID string
	stateFile string
	dataDir   string
}

func (sf *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&sf.sessionID, "session", "", "session ID to use")
	fs.StringVar(&sf.stateFile, "state-file", "", "path to a state file (overrides session)")
	fs.StringVar(&sf.dataDir, "data-dir", "data", "base directory for session folders")
}

// fileStore saves to one explicit path instead of a session folder.
type fileStore struct{ path string }

func (f fileStore) Save(_ string, st *engine.State) error { return statefile.SaveFile(f.path, st) }
func (f fileStore) Load(_ string) (*engine.State, error)  { return statefile.LoadFile(f.path) }

func (sf *sessionFlags) store() (session.StateStore, string, error) {
	if sf.stateFile != "" {
		return fileStore{path: sf.stateFile}, sf.stateFile, nil
	}
	if sf.sessionID == "" {
		return nil, "", errors.New("provide either --session or --state-file")
	}
	return statefile.NewStore(sf.dataDir), sf.sessionID, nil
}

func (sf *sessionFlags) resume(stochastic bool) (*session.Session, error) {
	store, id, err := sf.store()
	if err != nil {
		return nil, err
	}
	s, err := session.Resume(session.Options{ID: id, States: store, Events: events.NewLog(nil)}, stochastic)
	if errors.Is(err, statefile.ErrNotFound) {
		return nil, fmt.Errorf("no saved state for %q, run 'zombiotrack configure' first", id)
	}
	return s, err
}

func runConfigure(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	configPath := fs.String("config", "", "path to a zombiotrack.yaml")
	floors := fs.Int("floors", 0, "number of floors")
	rooms := fs.Int("rooms", 0, "number of rooms per floor")
	stochastic := fs.Bool("stochastic", false, "use stochastic propagation")
	seed := fs.Int64("seed", 0, "random seed for stochastic mode (0 = time-based)")
	probability := fs.Float64("probability", -1, "infection probability for stochastic mode")
	var infected multiFlag
	fs.Var(&infected, "infected", "initial infection, format 'floor,room:count' (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *floors > 0 {
		cfg.FloorsCount = *floors
	}
	if *rooms > 0 {
		cfg.RoomsPerFloor = *rooms
	}
	if *stochastic {
		cfg.Stochastic = true
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *probability >= 0 {
		cfg.InfectionProbability = *probability
	}
	if len(infected) > 0 {
		seeds, err := cli.ParseInfectedSpecs(infected)
		if err != nil {
			return err
		}
		cfg.Infected = cfg.Infected[:0]
		for coord, attrs := range seeds {
			cfg.Infected = append(cfg.Infected, config.SeedSpec{Floor: coord.Floor, Room: coord.Room, Count: attrs.ZombieCount})
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store session.StateStore
	id := sf.sessionID
	if sf.stateFile != "" {
		store = fileStore{path: sf.stateFile}
	} else {
		if id == "" {
			id = statefile.NewSessionID()
			fmt.Println("Generated new session id:", id)
		}
		store = statefile.NewStore(sf.dataDir)
	}

	s, err := session.FromConfig(cfg, session.Options{ID: id, States: store, Events: events.NewLog(nil)})
	if err != nil {
		return err
	}

	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	if sf.stateFile != "" {
		fmt.Println("State saved to:", sf.stateFile)
	} else {
		fmt.Println("Session id:", s.ID())
	}
	return nil
}

func runStep(args []string, turns int) error {
	fs := flag.NewFlagSet("step", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	stochastic := fs.Bool("stochastic", false, "use stochastic propagation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := sf.resume(*stochastic)
	if err != nil {
		return err
	}
	for i := 0; i < turns; i++ {
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	cli.RenderSummary(os.Stdout, s.State())
	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	return nil
}

func runMany(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	stochastic := fs.Bool("stochastic", false, "use stochastic propagation")
	turns := fs.Int("turns", 1, "number of turns to advance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *turns < 1 {
		return errors.New("--turns must be at least 1")
	}

	s, err := sf.resume(*stochastic)
	if err != nil {
		return err
	}
	for i := 0; i < *turns; i++ {
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	cli.RenderSummary(os.Stdout, s.State())
	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	return nil
}

func runGrid(args []string) error {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, id, err := sf.store()
	if err != nil {
		return err
	}
	st, err := store.Load(id)
	if err != nil {
		return err
	}
	cli.RenderGrid(os.Stdout, st, colorEnabled())
	return nil
}

func runState(args []string) error {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, id, err := sf.store()
	if err != nil {
		return err
	}
	st, err := store.Load(id)
	if err != nil {
		return err
	}
	doc, err := statefile.Encode(st)
	if err != nil {
		return err
	}
	os.Stdout.Write(doc)
	fmt.Println()
	return nil
}

func runRoomCommand(args []string, name string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: zombiotrack %s [flags] <floor,room>", name)
	}
	coord, err := cli.ParseCoord(fs.Arg(0))
	if err != nil {
		return err
	}

	s, err := sf.resume(false)
	if err != nil {
		return err
	}

	switch name {
	case "clean":
		_, err = s.CleanRoom(coord.Floor, coord.Room)
	case "block":
		_, err = s.BlockRoom(coord.Floor, coord.Room)
	case "unblock":
		_, err = s.UnblockRoom(coord.Floor, coord.Room)
	case "reset-sensor":
		_, err = s.ResetSensor(coord.Floor, coord.Room)
	}
	if err != nil {
		return err
	}
	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	return nil
}

func runResize(args []string) error {
	fs := flag.NewFlagSet("resize", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	floors := fs.Int("floors", 0, "new number of floors")
	rooms := fs.Int("rooms", 0, "new number of rooms per floor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *floors <= 0 || *rooms <= 0 {
		return errors.New("--floors and --rooms must both be positive")
	}

	s, err := sf.resume(false)
	if err != nil {
		return err
	}
	if _, err := s.Resize(*floors, *rooms); err != nil {
		return err
	}
	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	return nil
}

func runReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	preserve := fs.Bool("preserve-infected", false, "seed the fresh simulation with the current infection map")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := sf.resume(false)
	if err != nil {
		return err
	}
	seeds := s.State().Infected
	if !*preserve {
		seeds = nil
	}
	if _, err := s.Reset(seeds); err != nil {
		return err
	}
	cli.RenderGrid(os.Stdout, s.State(), colorEnabled())
	return nil
}

func runInteractive(args []string) error {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	var sf sessionFlags
	sf.register(fs)
	floors := fs.Int("floors", 0, "configure a new session with this floor count")
	rooms := fs.Int("rooms", 0, "configure a new session with this room count")
	stochastic := fs.Bool("stochastic", false, "use stochastic propagation")
	var infected multiFlag
	fs.Var(&infected, "infected", "initial infection, format 'floor,room:count' (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var s *session.Session
	if sf.sessionID != "" || sf.stateFile != "" {
		var err error
		s, err = sf.resume(*stochastic)
		if err != nil {
			return err
		}
	} else {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		if *floors > 0 {
			cfg.FloorsCount = *floors
		}
		if *rooms > 0 {
			cfg.RoomsPerFloor = *rooms
		}
		cfg.Stochastic = *stochastic
		seeds, err := cli.ParseInfectedSpecs(infected)
		if err != nil {
			return err
		}
		cfg.Infected = cfg.Infected[:0]
		for coord, attrs := range seeds {
			cfg.Infected = append(cfg.Infected, config.SeedSpec{Floor: coord.Floor, Room: coord.Room, Count: attrs.ZombieCount})
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		id := statefile.NewSessionID()
		fmt.Println("Generated new session id:", id)
		s, err = session.FromConfig(cfg, session.Options{
			ID:     id,
			States: statefile.NewStore(sf.dataDir),
			Events: events.NewLog(nil),
		})
		if err != nil {
			return err
		}
	}

	return cli.Interactive(os.Stdin, os.Stdout, s, colorEnabled())
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
