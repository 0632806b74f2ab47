package models

import "time"

type AdminPushToken struct {
	Admin_Push_Token_ID int       `json:"adminPushTokenId" goqu:"skipinsert"`
	Admin_User_ID       int       `json:"adminUserId"`
	Push_Token          string    `json:"pushToken"`
	Platform            string    `json:"platform"`
	Created_At          time.Time `json:"createdAt" goqu:"skipinsert"`
	Updated_At          time.Time `json:"updatedAt" goqu:"skipinsert"`
}

type PushTokenRequest struct {
	PushToken string `json:"pushToken" binding:"required"`
	Platform  string `json:"platform" binding:"required,oneof=ios android"`
}
