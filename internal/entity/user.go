package entity

var userKeys = []string{
	"name", "description", "groups",
	"email", "user_id", "created", "modified", "revision", "key",
}

var userSchema = NewSchema(userKeys, 3, map[string]int{"description": 80}, nil)

// User is an account profile. Its natural identifier is the hashed
// user_id, so a caller can only ever create or update their own profile;
// email and user_id always come from the authenticated identity.
type User struct {
	Base

	Name        string `json:"name"`
	Description string `json:"description"`
	Groups      string `json:"groups"`
	Email       string `json:"email"`
}

// UserType describes User to the generic adapter.
var UserType = Descriptor{
	Kind:   KindUser,
	New:    func() Entity { return &User{} },
	Schema: userSchema,
}

func (u *User) Kind() string { return KindUser }

func (u *User) ID() string { return u.Base.UserID }

func (u *User) Link(includeID bool) string {
	if includeID {
		return "/user/" + u.ID() + "/"
	}
	return "/user/"
}

func (u *User) Load(caller Identity, kv KV) error {
	name, err := ValidateNotEmpty("name", kv.Get("name", caller.Nickname))
	if err != nil {
		return err
	}
	email, err := ValidateEmail("email", caller.Email)
	if err != nil {
		return err
	}

	u.Name = name
	u.Description = kv.Get("description", "debug-description")
	u.Groups = kv.Get("groups", "debug-groups")
	u.Email = email
	u.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (u *User) Fields() map[string]any {
	fields := map[string]any{
		"name":        u.Name,
		"description": u.Description,
		"groups":      u.Groups,
		"email":       u.Email,
	}
	u.metaFields(fields)
	return fields
}

func (u *User) Schema() Schema { return userSchema }
