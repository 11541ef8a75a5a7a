package notify

import "github.com/manolisziCy/sports/pkg/sdk"

var messages = map[string]map[string]string{
	"en": {
		sdk.MsgPleaseWait:                       "Please wait...",
		sdk.MsgLoginError:                       "Login failed. Check your username and password.",
		sdk.MsgPendingAccountError:              "Your account is not active yet. Follow the link in the verification email.",
		sdk.MsgRegisterSuccess:                  "Registration complete. Check your inbox to verify your email.",
		sdk.MsgRegisterError:                    "Registration failed.",
		sdk.MsgExpiredEmailVerificationURLError: "The verification link has expired. Request a new one.",
		sdk.MsgVerifyEmailSuccess:               "Email verified. You can now log in.",
		sdk.MsgActiveAccountError:               "This account is already active.",
		sdk.MsgVerifyEmailError:                 "Email verification failed.",
		sdk.MsgResendVerificationEmailSuccess:   "A new verification email is on its way.",
		sdk.MsgResendVerificationEmailError:     "Could not send the verification email.",
		sdk.MsgResetPasswordEmailSuccess:        "Check your inbox for the password reset link.",
		sdk.MsgResetPasswordEmailError:          "Could not send the password reset email.",
		sdk.MsgExpiredResetPasswordURLError:     "The password reset link has expired. Request a new one.",
		sdk.MsgResetPasswordSuccess:             "Password changed. You can now log in.",
		sdk.MsgResetPasswordError:               "Password reset failed.",
		sdk.MsgErrorLoadingAllUsers:             "Could not load the users.",
		sdk.MsgErrorLoadingUserProfile:          "Could not load the user profile.",
		sdk.MsgInvalidInput:                     "Some fields are invalid.",
	},
	"el": {
		sdk.MsgPleaseWait:           "Παρακαλώ περιμένετε...",
		sdk.MsgLoginError:           "Η σύνδεση απέτυχε.",
		sdk.MsgPendingAccountError:  "Ο λογαριασμός σας δεν έχει ενεργοποιηθεί ακόμη.",
		sdk.MsgRegisterSuccess:      "Η εγγραφή ολοκληρώθηκε.",
		sdk.MsgVerifyEmailSuccess:   "Το email επιβεβαιώθηκε.",
		sdk.MsgResetPasswordSuccess: "Ο κωδικός άλλαξε.",
	},
}

// Translate returns the text of key in lang, falling back to English and then
// to the key itself.
func Translate(lang, key string) string {
	if text, ok := messages[lang][key]; ok {
		return text
	}
	if text, ok := messages["en"][key]; ok {
		return text
	}
	return key
}
