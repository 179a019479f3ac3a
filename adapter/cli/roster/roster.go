// Package roster provides the professional, client and service commands.
package roster

import (
	"github.com/spf13/cobra"
)

// ProfessionalCmd is the professional command group
var ProfessionalCmd = &cobra.Command{
	Use:     "professional",
	Aliases: []string{"pro"},
	Short:   "Manage professionals",
}

// ClientCmd is the client command group
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
}

// ServiceCmd is the service command group
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the service catalogue",
}

func init() {
	ProfessionalCmd.AddCommand(professionalAddCmd)
	ProfessionalCmd.AddCommand(professionalListCmd)
	ClientCmd.AddCommand(clientAddCmd)
	ServiceCmd.AddCommand(serviceAddCmd)
}
