// Command seedcheck validates the configured user directory and prints it.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"attendbot/internal/config"
	"attendbot/internal/directory"
	"attendbot/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger(nil)

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	dir, err := directory.New(cfg.Users)
	if err != nil {
		log.Error("Invalid user directory", "error", err)
		os.Exit(1)
	}

	fmt.Print(render(dir))
	log.Info("User directory is valid", "users", dir.Len(), "timezone", cfg.Timezone)
}

// render prints the directory without passwords.
func render(dir *directory.Directory) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-4s %-12s %-20s %-10s %-12s %s\n", "ID", "USERNAME", "NAME", "ROLE", "DEPARTMENT", "EMAIL"))
	b.WriteString(strings.Repeat("-", 79) + "\n")
	for _, u := range dir.Users() {
		b.WriteString(fmt.Sprintf("%-4s %-12s %-20s %-10s %-12s %s\n",
			strconv.Itoa(u.ID), u.Username, u.Name, u.Role, u.Department, u.Email))
	}
	b.WriteString(fmt.Sprintf("\nDepartments: %s\n", strings.Join(dir.Departments(), ", ")))
	return b.String()
}
