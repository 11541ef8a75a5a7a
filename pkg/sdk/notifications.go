package sdk

import "sync"

// AlertType classifies a shown notification.
type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertInfo    AlertType = "info"
	AlertError   AlertType = "error"
)

// NotificationKind distinguishes show and hide events.
type NotificationKind int

const (
	NotificationShow NotificationKind = iota
	NotificationHide
)

// Notification is a transient event for the view layer. MessageKey is an
// i18n key, Region optionally targets a display area.
type Notification struct {
	Kind       NotificationKind
	Type       AlertType
	MessageKey string
	Region     string
}

// Notification message keys.
const (
	MsgPleaseWait                       = "pleaseWait"
	MsgLoginError                       = "loginError"
	MsgPendingAccountError              = "pendingAccountError"
	MsgRegisterSuccess                  = "registerSuccess"
	MsgRegisterError                    = "registerError"
	MsgExpiredEmailVerificationURLError = "expiredEmailVerificationUrlError"
	MsgVerifyEmailSuccess               = "verifyEmailSuccess"
	MsgActiveAccountError               = "activeAccountError"
	MsgVerifyEmailError                 = "verifyEmailError"
	MsgResendVerificationEmailSuccess   = "resendVerificationEmailSuccess"
	MsgResendVerificationEmailError     = "resendVerificationEmailError"
	MsgResetPasswordEmailSuccess        = "resetPasswordEmailSuccess"
	MsgResetPasswordEmailError          = "resetPasswordEmailError"
	MsgExpiredResetPasswordURLError     = "expiredResetPasswordUrlError"
	MsgResetPasswordSuccess             = "resetPasswordSuccess"
	MsgResetPasswordError               = "resetPasswordError"
	MsgErrorLoadingAllUsers             = "errorLoadingAllUsers"
	MsgErrorLoadingUserProfile          = "errorLoadingUsersProfileData"
	MsgInvalidInput                     = "invalidInput"
)

// Subscriber receives notifications synchronously, in publish order.
type Subscriber func(Notification)

// NotificationChannel fans notifications out to its subscribers.
type NotificationChannel struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]Subscriber
	order       []int
}

// NewNotificationChannel returns a channel with no subscribers.
func NewNotificationChannel() *NotificationChannel {
	return &NotificationChannel{subscribers: make(map[int]Subscriber)}
}

// Subscribe registers fn and returns a function that removes it.
func (c *NotificationChannel) Subscribe(fn Subscriber) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.order = append(c.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			for i, v := range c.order {
				if v == id {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers n to every current subscriber.
func (c *NotificationChannel) Publish(n Notification) {
	c.mu.RLock()
	subs := make([]Subscriber, 0, len(c.order))
	for _, id := range c.order {
		subs = append(subs, c.subscribers[id])
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Show publishes a show event.
func (c *NotificationChannel) Show(t AlertType, messageKey, region string) {
	c.Publish(Notification{Kind: NotificationShow, Type: t, MessageKey: messageKey, Region: region})
}

func (c *NotificationChannel) Info(messageKey string)    { c.Show(AlertInfo, messageKey, "") }
func (c *NotificationChannel) Success(messageKey string) { c.Show(AlertSuccess, messageKey, "") }
func (c *NotificationChannel) Error(messageKey string)   { c.Show(AlertError, messageKey, "") }

// Hide publishes a hide event.
func (c *NotificationChannel) Hide() {
	c.Publish(Notification{Kind: NotificationHide})
}
