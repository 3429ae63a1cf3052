// One-off: go run scripts/seeduser.go [username] [password] [email]
// Prints an INSERT for a demo user; pipe it into psql.
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	username, password, email := "demo", "demo-password", "demo@recipeshare.local"
	if len(os.Args) > 1 {
		username = os.Args[1]
	}
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	if len(os.Args) > 3 {
		email = os.Args[3]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		panic(err)
	}
	fmt.Printf("INSERT INTO users (username, email, fullname, password_hash) VALUES (%s, %s, %s, %s) ON CONFLICT (username) DO NOTHING;\n",
		quote(username), quote(email), quote("Demo Cook"), quote(string(h)))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
