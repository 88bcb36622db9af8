package directory

import (
	"log/slog"
	"strings"
)

// Rights is the TeamTalk user rights bitmask carried on a server account.
type Rights uint32

const (
	RightMultiLogin             Rights = 0x00000001
	RightViewAllUsers           Rights = 0x00000002
	RightCreateTemporaryChannel Rights = 0x00000004
	RightModifyChannels         Rights = 0x00000008
	RightTextMessageBroadcast   Rights = 0x00000010
	RightKickUsers              Rights = 0x00000020
	RightBanUsers               Rights = 0x00000040
	RightMoveUsers              Rights = 0x00000080
	RightOperatorEnable         Rights = 0x00000100
	RightUploadFiles            Rights = 0x00000200
	RightDownloadFiles          Rights = 0x00000400
	RightUpdateServerProperties Rights = 0x00000800
	RightTransmitVoice          Rights = 0x00001000
	RightTransmitVideoCapture   Rights = 0x00002000
	RightTransmitDesktop        Rights = 0x00004000
	RightTransmitDesktopInput   Rights = 0x00008000
	RightTransmitMediaFileAudio Rights = 0x00010000
	RightTransmitMediaFileVideo Rights = 0x00020000
	RightLockedNickname         Rights = 0x00040000
	RightLockedStatus           Rights = 0x00080000
	RightRecordVoice            Rights = 0x00100000
	RightViewHiddenChannels     Rights = 0x00200000
	RightTextMessageUser        Rights = 0x00400000
	RightTextMessageChannel     Rights = 0x00800000

	RightTransmitMediaFile = RightTransmitMediaFileAudio | RightTransmitMediaFileVideo
)

var rightNames = map[string]Rights{
	"MULTI_LOGIN":              RightMultiLogin,
	"VIEW_ALL_USERS":           RightViewAllUsers,
	"CREATE_TEMPORARY_CHANNEL": RightCreateTemporaryChannel,
	"MODIFY_CHANNELS":          RightModifyChannels,
	"TEXTMESSAGE_BROADCAST":    RightTextMessageBroadcast,
	"KICK_USERS":               RightKickUsers,
	"BAN_USERS":                RightBanUsers,
	"MOVE_USERS":               RightMoveUsers,
	"OPERATOR_ENABLE":          RightOperatorEnable,
	"UPLOAD_FILES":             RightUploadFiles,
	"DOWNLOAD_FILES":           RightDownloadFiles,
	"UPDATE_SERVERPROPERTIES":  RightUpdateServerProperties,
	"TRANSMIT_VOICE":           RightTransmitVoice,
	"TRANSMIT_VIDEOCAPTURE":    RightTransmitVideoCapture,
	"TRANSMIT_DESKTOP":         RightTransmitDesktop,
	"TRANSMIT_DESKTOPINPUT":    RightTransmitDesktopInput,
	"TRANSMIT_MEDIAFILE":       RightTransmitMediaFile,
	"TRANSMIT_MEDIAFILE_AUDIO": RightTransmitMediaFileAudio,
	"TRANSMIT_MEDIAFILE_VIDEO": RightTransmitMediaFileVideo,
	"LOCKED_NICKNAME":          RightLockedNickname,
	"LOCKED_STATUS":            RightLockedStatus,
	"RECORD_VOICE":             RightRecordVoice,
	"VIEW_HIDDEN_CHANNELS":     RightViewHiddenChannels,
	"TEXTMESSAGE_USER":         RightTextMessageUser,
	"TEXTMESSAGE_CHANNEL":      RightTextMessageChannel,
}

// ParseRights folds a list of right names into a bitmask. Unknown names are
// logged and skipped so a typo in the config degrades instead of failing.
func ParseRights(names []string) Rights {
	var mask Rights
	for _, name := range names {
		right, ok := rightNames[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			slog.Warn("unknown user right, skipping", "component", "directory", "right", name)
			continue
		}
		mask |= right
	}
	return mask
}

func (r Rights) Has(right Rights) bool {
	return r&right == right
}
