package queue

// 队列名，每个实体领域一个
const (
	QueueUser         = "user"
	QueuePost         = "posts"
	QueueComment      = "comments"
	QueueReaction     = "reactions"
	QueueFollower     = "followers"
	QueueBlockedUser  = "blockedUsers"
	QueueChat         = "chats"
	QueueImage        = "images"
	QueueNotification = "notifications"
	QueueEmail        = "emails"
)

// 任务名
const (
	JobAddUser                    = "addUserToDB"
	JobUpdateUserInfo             = "updateUserInfoInDB"
	JobUpdateSocialLinks          = "updateSocialLinksInDB"
	JobUpdateNotificationSettings = "updateNotificationSettings"
	JobUpdatePassword             = "updatePasswordInDB"

	JobAddPost    = "addPostToDB"
	JobUpdatePost = "updatePostInDB"
	JobDeletePost = "deletePostFromDB"

	JobAddComment = "addCommentToDB"

	JobAddReaction    = "addReactionToDB"
	JobRemoveReaction = "removeReactionFromDB"

	JobAddFollower    = "addFollowerToDB"
	JobRemoveFollower = "removeFollowerFromDB"

	JobAddBlockedUser    = "addBlockedUserToDB"
	JobRemoveBlockedUser = "removeBlockedUserFromDB"

	JobAddChatMessage        = "addChatMessageToDB"
	JobMarkMessageAsDeleted  = "markMessageAsDeleted"
	JobMarkMessagesAsRead    = "markMessagesAsRead"
	JobUpdateMessageReaction = "updateMessageReaction"

	JobAddProfileImage = "addUserProfileImageToDB"
	JobUpdateBGImage   = "updateBGImageInDB"
	JobAddImage        = "addImageToDB"
	JobRemoveImage     = "removeImageFromDB"

	JobUpdateNotification = "updateNotificationInDB"
	JobDeleteNotification = "deleteNotificationFromDB"

	JobForgotPasswordEmail = "forgotPasswordEmail"
	JobResetPasswordEmail  = "resetPasswordEmail"
	JobCommentsEmail       = "commentsEmail"
	JobFollowersEmail      = "followersEmail"
	JobReactionsEmail      = "reactionsEmail"
	JobDirectMessageEmail  = "directMessageEmail"
)
