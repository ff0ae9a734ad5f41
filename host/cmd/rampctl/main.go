package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"accelstep/host/device"
	"accelstep/host/serial"
)

var (
	devicePath = flag.String("device", "/dev/ttyACM0", "serial device path")
	baud       = flag.Int("baud", 250000, "baud rate (ignored for USB CDC)")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("rampctl: ")

	dev := device.New()

	cfg := serial.DefaultConfig(*devicePath)
	cfg.Baud = *baud
	if err := dev.ConnectWithConfig(cfg); err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer dev.Close()

	if err := dev.RetrieveDictionary(); err != nil {
		log.Fatalf("retrieve dictionary: %v", err)
	}
	log.Printf("connected to %s, dictionary %d bytes", *devicePath, len(dev.DictionaryRaw()))

	fmt.Println("Enter commands ('help' for a list, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "q" {
			return
		}
		if err := runCommand(dev, strings.Fields(line)); err != nil {
			log.Printf("error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}
}

func runCommand(dev *device.Device, args []string) error {
	switch args[0] {
	case "help", "?":
		printHelp()
		return nil

	case "dict":
		fmt.Print(string(dev.DictionaryRaw()))
		return nil

	case "config":
		vals, err := intArgs(args[1:], 3, 5)
		if err != nil {
			return err
		}
		invertStep := len(vals) > 3 && vals[3] != 0
		invertDir := len(vals) > 4 && vals[4] != 0
		return dev.ConfigMotor(uint8(vals[0]), uint8(vals[1]), uint8(vals[2]), invertStep, invertDir)

	case "accel":
		vals, err := intArgs(args[1:], 2, 2)
		if err != nil {
			return err
		}
		return dev.SetAcceleration(uint8(vals[0]), int32(vals[1]))

	case "speed":
		vals, err := intArgs(args[1:], 2, 2)
		if err != nil {
			return err
		}
		return dev.SetSpeed(uint8(vals[0]), uint32(vals[1]))

	case "moveto":
		vals, err := intArgs(args[1:], 2, 2)
		if err != nil {
			return err
		}
		return dev.MoveTo(uint8(vals[0]), int32(vals[1]))

	case "move":
		vals, err := intArgs(args[1:], 2, 2)
		if err != nil {
			return err
		}
		return dev.Move(uint8(vals[0]), int32(vals[1]))

	case "fwd":
		vals, err := intArgs(args[1:], 1, 1)
		if err != nil {
			return err
		}
		return dev.StartRun(uint8(vals[0]), true)

	case "rev":
		vals, err := intArgs(args[1:], 1, 1)
		if err != nil {
			return err
		}
		return dev.StartRun(uint8(vals[0]), false)

	case "stop":
		vals, err := intArgs(args[1:], 1, 1)
		if err != nil {
			return err
		}
		return dev.StopRamp(uint8(vals[0]))

	case "fstop":
		vals, err := intArgs(args[1:], 1, 1)
		if err != nil {
			return err
		}
		return dev.ForceStop(uint8(vals[0]))

	case "setpos":
		vals, err := intArgs(args[1:], 2, 2)
		if err != nil {
			return err
		}
		return dev.SetPosition(uint8(vals[0]), int32(vals[1]))

	case "pos":
		vals, err := intArgs(args[1:], 1, 1)
		if err != nil {
			return err
		}
		status, err := dev.GetPosition(uint8(vals[0]))
		if err != nil {
			return err
		}
		fmt.Printf("motor %d: pos=%d target=%d speed=%d Hz\n",
			status.Motor, status.Position, status.Target, status.SpeedHz)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArgs(args []string, min, max int) ([]int64, error) {
	if len(args) < min || len(args) > max {
		return nil, fmt.Errorf("expected %d to %d arguments, got %d", min, max, len(args))
	}
	vals := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not a number", a)
		}
		vals[i] = v
	}
	return vals, nil
}

func printHelp() {
	fmt.Println(`Commands:
  config <motor> <step_pin> <dir_pin> [invert_step] [invert_dir]
  accel <motor> <steps_per_s2>     set ramp acceleration
  speed <motor> <hz>               set target speed in steps/s
  moveto <motor> <pos>             ramp to absolute position
  move <motor> <delta>             ramp by relative steps
  fwd <motor> / rev <motor>        run continuously
  stop <motor>                     decelerate to standstill
  fstop <motor>                    stop immediately
  setpos <motor> <pos>             overwrite position (motor stopped)
  pos <motor>                      query position and speed
  dict                             print the command dictionary
  quit`)
}
