// Package user stores the people known to Doorsense.
//
// A user is a name and a unique email address. The package offers a
// Repository interface with a SQLite implementation; uniqueness of the email
// is enforced by the storage engine and surfaced as ErrEmailExists.
//
// Usage:
//
//	repo := user.NewSQLiteRepository(db.DB)
//	u := &user.User{Name: "Ada", Email: "ada@example.com"}
//	if err := repo.Create(ctx, u); err != nil {
//	    if errors.Is(err, user.ErrEmailExists) {
//	        // duplicate
//	    }
//	}
package user
