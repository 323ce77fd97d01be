package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zombiotrack/zombiotrack/internal/session"
)

// Interactive runs the terminal menu loop against a session. The loop ends
// when the user exits or input runs out.
func Interactive(in io.Reader, out io.Writer, s *session.Session, color bool) error {
	scanner := bufio.NewScanner(in)
	initialSeeds := s.State().Infected.Clone()

	for {
		fmt.Fprintln(out, "\n--- ZOMBIE SIMULATION MENU ---")
		fmt.Fprintln(out, "1. Advance turn")
		fmt.Fprintln(out, "2. Show building state")
		fmt.Fprintln(out, "3. Clean a room")
		fmt.Fprintln(out, "4. Manage room access")
		fmt.Fprintln(out, "5. Reset a sensor")
		fmt.Fprintln(out, "6. Reset simulation")
		fmt.Fprintln(out, "7. Exit")

		option, ok := promptLine(scanner, out, "\nSelect an option: ")
		if !ok {
			return scanner.Err()
		}

		switch option {
		case "1":
			if _, err := s.Step(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			} else {
				fmt.Fprintln(out, "Turn advanced.")
			}

		case "2":
			RenderSummary(out, s.State())

		case "3", "4", "5":
			floor, ok := promptInt(scanner, out, "Floor number: ")
			if !ok {
				return scanner.Err()
			}
			room, ok := promptInt(scanner, out, "Room number: ")
			if !ok {
				return scanner.Err()
			}

			switch option {
			case "3":
				if _, err := s.CleanRoom(floor, room); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				} else {
					fmt.Fprintf(out, "Room (%d,%d) cleaned.\n", floor, room)
				}
			case "4":
				fmt.Fprintln(out, "\n--- Room Access Menu ---")
				fmt.Fprintln(out, "1. Block room")
				fmt.Fprintln(out, "2. Unblock room")
				sub, ok := promptLine(scanner, out, "Select an option: ")
				if !ok {
					return scanner.Err()
				}
				switch sub {
				case "1":
					if _, err := s.BlockRoom(floor, room); err != nil {
						fmt.Fprintf(out, "Error: %v\n", err)
					} else {
						fmt.Fprintf(out, "Room (%d,%d) blocked.\n", floor, room)
					}
				case "2":
					if _, err := s.UnblockRoom(floor, room); err != nil {
						fmt.Fprintf(out, "Error: %v\n", err)
					} else {
						fmt.Fprintf(out, "Room (%d,%d) unblocked.\n", floor, room)
					}
				default:
					fmt.Fprintln(out, "Invalid sub-option.")
				}
			case "5":
				if _, err := s.ResetSensor(floor, room); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
				} else {
					fmt.Fprintf(out, "Sensor in room (%d,%d) reset.\n", floor, room)
				}
			}

		case "6":
			fmt.Fprintln(out, "\nNUKING the simulation... Resetting to zero.")
			if _, err := s.Reset(initialSeeds); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			} else {
				fmt.Fprintln(out, "Simulation has been reset.")
			}

		case "7":
			fmt.Fprintln(out, "Exiting interactive mode.")
			return nil

		default:
			fmt.Fprintln(out, "Invalid option. Try again.")
		}

		RenderGrid(out, s.State(), color)
	}
}

func promptLine(scanner *bufio.Scanner, out io.Writer, prompt string) (string, bool) {
	fmt.Fprint(out, prompt)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// promptInt asks until a non-negative integer is entered.
func promptInt(scanner *bufio.Scanner, out io.Writer, prompt string) (int, bool) {
	for {
		line, ok := promptLine(scanner, out, prompt)
		if !ok {
			return 0, false
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(out, "Invalid input. Enter a valid number.")
			continue
		}
		if value < 0 {
			fmt.Fprintln(out, "Value must be non-negative.")
			continue
		}
		return value, true
	}
}
