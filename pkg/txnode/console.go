package txnode

import (
	"context"
	"io"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/fault"
	fx "github.com/irguard/irguard.go/pkg/framework"
)

const menuText = `=============== IR + WATCHDOG + TELEMETRY ===============
 appliance commands:
   1  turn on
   2  turn off
   3  set temperature 22C (known to fault!)
   4  set temperature 20C
   5  fan level 1
   6  fan level 2
 fault injection:
   f  infinite loop (fault 1)
   u  stuck transmitter (fault 3)
 utilities:
   s  system status
   0  show this menu
=========================================================`

// Console is the operator menu: single-character commands posted into
// the control loop, so all state mutation stays on the loop goroutine.
type Console struct {
	Shell *ishell.Shell

	loop fx.LoopControl
	out  io.Writer
}

// NewConsole creates the operator console bound to a loop.
func NewConsole(loop fx.LoopControl) *Console {
	c := &Console{Shell: ishell.New(), loop: loop, out: os.Stdout}
	c.Shell.Println(menuText)
	c.Shell.SetPrompt("> ")
	c.addCommands()
	return c
}

func (c *Console) addCommands() {
	command := func(name, help string, cmd appliance.Command) *ishell.Cmd {
		return &ishell.Cmd{
			Name: name,
			Help: help,
			Func: func(ic *ishell.Context) {
				c.loop.PostMessage(CommandMsg{Command: cmd})
			},
		}
	}
	c.Shell.AddCmd(command("1", "turn appliance on", appliance.On))
	c.Shell.AddCmd(command("2", "turn appliance off", appliance.Off))
	c.Shell.AddCmd(&ishell.Cmd{
		Name: "3",
		Help: "set temperature 22C (known to fault!)",
		Func: func(ic *ishell.Context) {
			ic.Println("warning: this command faults on purpose")
			c.loop.PostMessage(CommandMsg{Command: appliance.Temp22})
		},
	})
	c.Shell.AddCmd(command("4", "set temperature 20C", appliance.Temp20))
	c.Shell.AddCmd(command("5", "fan level 1", appliance.Fan1))
	c.Shell.AddCmd(command("6", "fan level 2", appliance.Fan2))

	c.Shell.AddCmd(&ishell.Cmd{
		Name:    "f",
		Aliases: []string{"F"},
		Help:    "trigger the infinite-loop fault",
		Func: func(ic *ishell.Context) {
			ic.Println("warning: triggering the infinite-loop fault")
			c.loop.PostMessage(TriggerFaultMsg{Code: fault.InfiniteLoop})
		},
	})
	c.Shell.AddCmd(&ishell.Cmd{
		Name:    "u",
		Aliases: []string{"U"},
		Help:    "trigger the stuck-transmitter fault",
		Func: func(ic *ishell.Context) {
			ic.Println("warning: triggering the stuck-transmitter fault")
			c.loop.PostMessage(TriggerFaultMsg{Code: fault.UARTStuck})
		},
	})
	c.Shell.AddCmd(&ishell.Cmd{
		Name:    "s",
		Aliases: []string{"S"},
		Help:    "print system status",
		Func: func(ic *ishell.Context) {
			c.loop.PostMessage(StatusMsg{Out: c.out})
		},
	})
	c.Shell.AddCmd(&ishell.Cmd{
		Name: "0",
		Help: "show the menu",
		Func: func(ic *ishell.Context) {
			ic.Println(menuText)
		},
	})

	c.Shell.NotFound(func(ic *ishell.Context) {
		ic.Println("invalid command, type '0' for the menu")
	})
}

// Name implements framework.Named.
func (c *Console) Name() string {
	return "console"
}

// Run implements framework.Runnable.
func (c *Console) Run(ctx context.Context) error {
	return fx.RunWithContextCancel(ctx, c.Shell.Stop, func() error {
		c.Shell.Run()
		return nil
	})
}
