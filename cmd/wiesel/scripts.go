package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plus3/scriptbridge/bridge"

	_ "github.com/plus3/scriptbridge/scripts"
)

type scriptInfo struct {
	Name     string      `json:"name"`
	Revision string      `json:"revision"`
	Fields   []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

func newScriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List registered script types and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			infos := describeScripts(bridge.DefaultScripts)

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			w := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(w, "%s (rev %s)\n", info.Name, info.Revision)
				for _, f := range info.Fields {
					if f.Kind == bridge.FieldReference.String() {
						fmt.Fprintf(w, "  %-16s %-10s %s\n", f.Name, f.Kind, f.Type)
						continue
					}
					fmt.Fprintf(w, "  %-16s %-10s %v\n", f.Name, f.Kind, f.Default)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func describeScripts(r *bridge.ScriptRegistry) []scriptInfo {
	var infos []scriptInfo
	for _, name := range r.Names() {
		st, _ := r.Lookup(name)
		info := scriptInfo{Name: name, Revision: fmt.Sprintf("%016x", st.Revision)}
		for _, f := range st.Fields() {
			fi := fieldInfo{Name: f.Name, Kind: f.Kind.String(), Type: f.Type.String()}
			switch f.Kind {
			case bridge.FieldVector:
				fi.Default = f.Value.(bridge.Vector).String()
			case bridge.FieldReference:
			default:
				fi.Default = f.Value
			}
			info.Fields = append(info.Fields, fi)
		}
		infos = append(infos, info)
	}
	return infos
}
