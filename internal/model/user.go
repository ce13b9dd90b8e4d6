package model

import "time"

// Role names stored in the users.role column.  Every account carries
// exactly one role; capability checks are derived from it via the
// predicate functions below rather than stored as separate flags.
const (
    RoleUser      = "user"      // default role for new accounts
    RoleDonor     = "donor"     // may respond to donation requests
    RoleRecipient = "recipient" // may post donation requests
    RoleCaregiver = "caregiver" // acts on behalf of a recipient
    RoleAdmin     = "admin"     // implies every other capability
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are primarily used
// internally by the repository layer; handlers define separate response
// types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, also the credential presented
//                 on donation endpoints via the X-User-Email header.
//  Username     – unique display name.
//  PasswordHash – bcrypt hashed password.
//  FullName     – optional full name.
//  PhoneNumber  – optional contact number.
//  Role         – one of the Role* constants above.
//  DeletedAt    – soft-deletion timestamp (nil while the account is
//                 active).  Deleted accounts fail credential resolution.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64     // users.id
    Email        string     // users.email
    Username     string     // users.username
    PasswordHash string     // users.password_hash
    FullName     string     // users.full_name
    PhoneNumber  *string    // users.phone_number (nullable)
    Role         string     // users.role
    DeletedAt    *time.Time // users.deleted_at (nullable)
    CreatedAt    time.Time  // users.created_at
    UpdatedAt    time.Time  // users.updated_at
}

// IsDonor reports whether the role may act as a donor.  Admins hold
// every capability.
func IsDonor(role string) bool { return role == RoleDonor || role == RoleAdmin }

// IsRecipient reports whether the role may act as a recipient.
func IsRecipient(role string) bool { return role == RoleRecipient || role == RoleAdmin }

// IsCaregiver reports whether the role may act as a caregiver.
func IsCaregiver(role string) bool { return role == RoleCaregiver || role == RoleAdmin }

// IsAdmin reports whether the role is the admin role.
func IsAdmin(role string) bool { return role == RoleAdmin }

// IsDeleted reports whether the account has been soft-deleted.
func (u User) IsDeleted() bool { return u.DeletedAt != nil }

// ValidRole reports whether the supplied string is one of the known
// role names.  Registration falls back to RoleUser for anything else.
func ValidRole(role string) bool {
    switch role {
    case RoleUser, RoleDonor, RoleRecipient, RoleCaregiver, RoleAdmin:
        return true
    }
    return false
}
