package model

import "time"

// Account represents a row of the `accounts` table: the identity every
// owned record resolves back to.  PasswordHash never leaves the process;
// handlers answer with Profile instead.
type Account struct {
    ID           uint64    // accounts.id
    Username     string    // accounts.username (unique)
    Email        string    // accounts.email (unique, lower-cased)
    PasswordHash string    // accounts.password_hash (bcrypt)
    FirstName    string    // accounts.first_name
    LastName     string    // accounts.last_name
    CreatedAt    time.Time // accounts.created_at
    UpdatedAt    time.Time // accounts.updated_at
}

// Profile is the public view of an account returned by "who am I".
type Profile struct {
    ID        uint64 `json:"id"`
    Username  string `json:"username"`
    Email     string `json:"email"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
}

// Profile strips credential material from the account.
func (a Account) Profile() Profile {
    return Profile{ID: a.ID, Username: a.Username, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
}
