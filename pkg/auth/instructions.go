package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialGuide explains where the four API secrets come from
func ShowCredentialGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("🔑 TWITTER API CREDENTIALS")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println("twscraper signs requests with OAuth1 using four secrets from a")
	fmt.Println("registered developer application:")
	fmt.Println()
	fmt.Println("   1. Open https://developer.twitter.com and sign in")
	fmt.Println("   2. Create a project and an app (or pick an existing one)")
	fmt.Println("   3. Under 'Keys and tokens' copy the API key and API secret")
	fmt.Println("   4. Generate an access token and access token secret for your account")
	fmt.Println()
	fmt.Println("💡 TIPS:")
	fmt.Println("   • The app needs read access to user timelines")
	fmt.Println("   • Regenerating a token invalidates the stored profile")
	fmt.Println("   • Secrets can also be set with TWSCRAPER_API_KEY, TWSCRAPER_API_SECRET,")
	fmt.Println("     TWSCRAPER_ACCESS_TOKEN and TWSCRAPER_ACCESS_TOKEN_SECRET")
	fmt.Println()
	fmt.Println("⚠️  These secrets act as your account. Never share them.")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}
