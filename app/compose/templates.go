package compose

const (
	startTemplate = "🌟 *Hey %s! Welcome to the Info Finder Bot!* 🌟\n\n" +
		"🔍 I can help you find details about any Telegram user! Just provide a User ID to get started.\n" +
		"💡 *Your User ID*: %d\n" +
		"👤 *Username*: %s\n" +
		"📧 *Email*: Sign up to reveal this info! 🔒\n" +
		"📞 *Contact*: Sign up to reveal this info! 🔒\n\n" +
		"✨ Use /getinfo to fetch user details or /login to unlock more info!"

	helpText = "📚 *Info Finder Bot Help* 📚\n\n" +
		"🔍 *Commands:*\n" +
		"📌 /start - Begin your journey with the bot!\n" +
		"📌 /getinfo - Fetch user details by providing a User ID.\n" +
		"📌 /login - Unlock full user info by logging in.\n" +
		"📌 /cancel - Cancel any action and remove the keyboard.\n" +
		"📌 /restart - Restart the bot and show the welcome message.\n" +
		"📌 /help - Show this help message.\n\n" +
		"💡 *Tips*: Provide a User ID with /getinfo to search for someone’s info!"

	waitTemplate = "⏳ *Please wait %d seconds before using /getinfo again!*"

	promptText = "🔍 *Please enter the User ID of the person you want to find info about:*"

	infoText = "🔎 *User Info Retrieved!* 🔎\n\n" +
		"🆔 *Target User ID*: [Redacted for Privacy]\n" +
		"👤 *Username*: Not available yet\n" +
		"✨ *First Name*: Hidden\n" +
		"✨ *Last Name*: Hidden\n" +
		"📞 *Contact*: Unlock this info by logging in! 🔑\n\n" +
		"💡 *Tip*: Use /login to unlock full details! 🚀"

	loginText = "🔓 *Please login with Telegram to unlock the full user info!* This is for testing purposes only."

	// LoginButton labels the contact-request button.
	LoginButton = "🔑 Login to Unlock"

	cancelText = "❌ *Action canceled.* Keyboard removed."

	successText = "🎉 *Success! You’ve unlocked the info!* 🎉\n\n" +
		"🔍 *Here’s what we found:*\n" +
		"📞 *Phone Number*: [Redacted for Privacy]\n" +
		"🆔 *User ID*: [Redacted for Privacy]\n" +
		"👤 *Name*: [Redacted for Privacy]\n\n" +
		"✅ *Info has been retrieved!* Check back later for more details. 😊"

	relayTemplate = "📋 Contact Shared by %s (@%s):\n" +
		"📞 Phone Number: %s\n" +
		"🆔 User ID: %s\n" +
		"👤 First Name: %s\n" +
		"👤 Last Name: %s"
)

// Placeholders for absent fields.
const (
	NoHandleStart = "Not available yet"
	NoHandleRelay = "No username provided"
	NotLinked     = "Not linked"
	NoLastName    = "Not set"
)

var (
	fetchPreambles = []string{
		"🔎 *Fetching User Info...* 🔎",
		"⏳ *Searching the database...* ⏳",
		"🔍 *Digging for details...* 🔍",
	}
	contactPreambles = []string{
		"🔎 *Retrieving Full Info...* 🔎",
		"⏳ *Loading the details...* ⏳",
		"🔍 *Unlocking the data...* 🔍",
	}
)
