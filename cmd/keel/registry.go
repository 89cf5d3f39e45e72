package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"keel/internal/registry"
	"keel/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("8"))
	countStyle  = lipgloss.NewStyle().Bold(true)
)

var registryCmd = &cobra.Command{
	Use:   "registry <snapshot>",
	Short: "Inspect a sealed registry snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		printSummary(reg, useColor(cmd, os.Stdout))
		return nil
	},
}

func loadSnapshot(path string) (*registry.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return registry.FromSnapshot(data)
}

func printSummary(reg *registry.Registry, colored bool) {
	tn := reg.Types()
	var structs, enums, traits int
	for id := types.TypeID(0); int(id) < tn.Len(); id++ {
		t, ok := tn.Lookup(id)
		if !ok {
			continue
		}
		switch t.Kind {
		case types.KindStruct:
			structs++
		case types.KindEnum:
			enums++
		case types.KindTrait:
			traits++
		}
	}

	row := func(label string, n int) string {
		l, c := label, fmt.Sprintf("%d", n)
		if colored {
			l = labelStyle.Render(l)
			c = countStyle.Render(c)
		}
		return fmt.Sprintf("%s %s", l, c)
	}
	title := "registry snapshot"
	if colored {
		title = headerStyle.Render(title)
	}
	fmt.Println(title)
	fmt.Println(row("structs", structs))
	fmt.Println(row("enums", enums))
	fmt.Println(row("traits", traits))
	fmt.Println(row("impls", reg.ImplCount()))
	fmt.Println(row("conversions", reg.Conversions().Len()))

	for _, e := range reg.Conversions().Edges() {
		fmt.Printf("  %s -> %s\n", tn.Render(e.From), tn.Render(e.To))
	}
}
