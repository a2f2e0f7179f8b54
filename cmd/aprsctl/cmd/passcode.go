/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamnet/aprsbot/aprs"
)

func init() {
	RootCmd.AddCommand(passcodeCmd)
}

var passcodeCmd = &cobra.Command{
	Use:   "passcode <callsign>",
	Short: "Compute the APRS-IS passcode for a callsign",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()
		callsign := strings.ToUpper(args[0])
		fmt.Printf("%s: %d\n", callsign, aprs.Passcode(callsign))
	},
}
