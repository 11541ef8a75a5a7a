package sdk_test

import (
	"testing"

	"github.com/manolisziCy/sports/pkg/sdk"
	"github.com/stretchr/testify/assert"
)

func TestNotificationChannel_DeliversInOrder(t *testing.T) {
	ch := sdk.NewNotificationChannel()

	var first, second []string
	ch.Subscribe(func(n sdk.Notification) { first = append(first, n.MessageKey) })
	unsubscribe := ch.Subscribe(func(n sdk.Notification) { second = append(second, n.MessageKey) })

	ch.Info(sdk.MsgPleaseWait)
	ch.Error(sdk.MsgLoginError)
	unsubscribe()
	unsubscribe()
	ch.Success(sdk.MsgRegisterSuccess)

	assert.Equal(t, []string{sdk.MsgPleaseWait, sdk.MsgLoginError, sdk.MsgRegisterSuccess}, first)
	assert.Equal(t, []string{sdk.MsgPleaseWait, sdk.MsgLoginError}, second)
}

func TestNotificationChannel_Kinds(t *testing.T) {
	ch := sdk.NewNotificationChannel()
	var got []sdk.Notification
	ch.Subscribe(func(n sdk.Notification) { got = append(got, n) })

	ch.Show(sdk.AlertError, sdk.MsgErrorLoadingAllUsers, "users")
	ch.Hide()

	assert.Equal(t, []sdk.Notification{
		{Kind: sdk.NotificationShow, Type: sdk.AlertError, MessageKey: sdk.MsgErrorLoadingAllUsers, Region: "users"},
		{Kind: sdk.NotificationHide},
	}, got)
}

func TestNotificationChannel_NoSubscribers(t *testing.T) {
	ch := sdk.NewNotificationChannel()
	assert.NotPanics(t, func() {
		ch.Error(sdk.MsgLoginError)
		ch.Hide()
	})
}
