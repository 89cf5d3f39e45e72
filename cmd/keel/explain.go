package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"keel/internal/diag"
	"keel/internal/diagfmt"
	"keel/internal/dispatch"
	"keel/internal/generics"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

var (
	explainTrait  string
	explainMethod string
	explainArgs   string
)

// explain resolves one call against a snapshot and prints the decision:
// which impl won, which conversions it picked up, or why resolution failed,
// without rerunning the whole front end.
var explainCmd = &cobra.Command{
	Use:   "explain <snapshot>",
	Short: "Explain dispatch resolution for one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		trait, err := findNamed(reg, explainTrait, types.KindTrait)
		if err != nil {
			return err
		}
		var argTypes []types.TypeID
		for _, name := range strings.Split(explainArgs, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			at, err := findAnyNamed(reg, name)
			if err != nil {
				return err
			}
			argTypes = append(argTypes, at)
		}
		method, ok := reg.Strings().ID(explainMethod)
		if !ok {
			return fmt.Errorf("unknown method %q", explainMethod)
		}

		resolver := dispatch.NewResolver(reg, &generics.Binder{Reg: reg})
		resolved, err := resolver.Resolve(dispatch.Request{
			Trait:  trait,
			Method: method,
			Args:   argTypes,
		})
		if err != nil {
			printResolveFailure(cmd, reg, err)
			os.Exit(1)
		}

		fmt.Printf("winner: impl of %s for %s\n", explainTrait, reg.Types().Render(resolved.Type))
		if len(resolved.Conversions) == 0 {
			fmt.Println("conversions: none")
		} else {
			for _, conv := range resolved.Conversions {
				fmt.Printf("conversion: arg %d via %s -> %s\n", conv.Index,
					reg.Types().Render(conv.Edge.From), reg.Types().Render(conv.Edge.To))
			}
		}
		fmt.Printf("result: %s\n", reg.Types().Render(resolved.Result))
		return nil
	},
}

// printResolveFailure renders the failure as a diagnostic. The snapshot
// carries impl spans but not source files, so positions degrade to 0:0 while
// candidate notes stay useful.
func printResolveFailure(cmd *cobra.Command, reg *registry.Registry, err error) {
	max, _ := cmd.Flags().GetInt("max-diagnostics")
	bag := diag.NewBag(max)

	var de *dispatch.Error
	var ge *generics.Error
	switch {
	case errors.As(err, &de):
		d := diag.NewError(de.Code, source.Span{}, de.Msg)
		for _, cand := range de.Candidates {
			if im, ok := reg.Impl(cand.Impl); ok {
				d = d.WithNote(im.Span, "candidate impl for "+reg.Types().Render(cand.Type))
			}
		}
		bag.Add(d)
	case errors.As(err, &ge):
		bag.Add(diag.NewError(ge.Code, source.Span{}, ge.Msg))
	default:
		bag.Add(diag.NewError(diag.UnknownCode, source.Span{}, err.Error()))
	}

	diagfmt.Pretty(os.Stderr, bag, source.NewFileSet(), diagfmt.PrettyOpts{
		Color:     useColor(cmd, os.Stderr),
		ShowNotes: true,
	})
}

func init() {
	explainCmd.Flags().StringVar(&explainTrait, "trait", "", "trait name")
	explainCmd.Flags().StringVar(&explainMethod, "method", "", "method name")
	explainCmd.Flags().StringVar(&explainArgs, "args", "", "comma-separated argument type names")
	_ = explainCmd.MarkFlagRequired("trait")
	_ = explainCmd.MarkFlagRequired("method")
	_ = explainCmd.MarkFlagRequired("args")
}

// findNamed resolves a type name of a specific kind inside the snapshot.
func findNamed(reg *registry.Registry, name string, kind types.Kind) (types.TypeID, error) {
	tn := reg.Types()
	sid, ok := reg.Strings().ID(name)
	if !ok {
		return types.NoTypeID, fmt.Errorf("unknown name %q", name)
	}
	for id := types.TypeID(1); int(id) < tn.Len(); id++ {
		t, ok := tn.Lookup(id)
		if ok && t.Kind == kind && t.Name == sid {
			return id, nil
		}
	}
	return types.NoTypeID, fmt.Errorf("no %s named %q", kind, name)
}

func findAnyNamed(reg *registry.Registry, name string) (types.TypeID, error) {
	tn := reg.Types()
	sid, ok := reg.Strings().ID(name)
	if !ok {
		return types.NoTypeID, fmt.Errorf("unknown type %q", name)
	}
	for id := types.TypeID(1); int(id) < tn.Len(); id++ {
		t, ok := tn.Lookup(id)
		if ok && t.Name == sid && t.Kind != types.KindTrait {
			return id, nil
		}
	}
	return types.NoTypeID, fmt.Errorf("unknown type %q", name)
}
