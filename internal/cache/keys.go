package cache

// 同一部署内所有进程共用的 key 布局
const (
	userIndexKey  = "user"
	postIndexKey  = "post"
	postImagesKey = "post:images"
	chatUsersKey  = "chatUsers"
)

func userKey(id string) string { return "users:" + id }
func postKey(id string) string { return "posts:" + id }
func userPostsKey(userID string) string { return "post:user:" + userID }
func commentsKey(postID string) string { return "comments:" + postID }
func commentIndexKey(postID string) string { return "commentIndex:" + postID }
func reactionsKey(postID string) string { return "reactions:" + postID }
func reactionIndexKey(postID string) string { return "reactionIndex:" + postID }
func followersKey(userID string) string { return "followers:" + userID }
func followingKey(userID string) string { return "following:" + userID }
func messagesKey(convID string) string { return "messages:" + convID }
func messageIndexKey(convID string) string { return "messageIndex:" + convID }
func chatListKey(actorID string) string { return "chatList:" + actorID }
func chatIndexKey(actorID string) string { return "chatIndex:" + actorID }
