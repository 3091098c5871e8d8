package ctype

func str() Property { return Property{Type: TypeString} }

// Claim schemas, one per identity provider.
var (
	Email = New("Email", map[string]Property{
		"Email": str(),
	})
	Discord = New("Discord", map[string]Property{
		"Username":      str(),
		"Discriminator": str(),
		"User ID":       str(),
	})
	GitHub = New("GitHub", map[string]Property{
		"Username": str(),
		"User ID":  str(),
	})
	Twitch = New("Twitch", map[string]Property{
		"Username": str(),
		"User ID":  str(),
	})
	LinkedIn = New("LinkedIn", map[string]Property{
		"Name":       str(),
		"Profile ID": str(),
	})
	YouTube = New("YouTube Channel", map[string]Property{
		"Channel Name": str(),
		"Channel ID":   str(),
	})
	Telegram = New("Telegram", map[string]Property{
		"First name": str(),
		"Last name":  str(),
		"Username":   str(),
		"User ID":    {Type: TypeInteger},
	})
)

// Known returns a registry of every schema above.
func Known() *Registry {
	return NewRegistry(Email, Discord, GitHub, Twitch, LinkedIn, YouTube, Telegram)
}
