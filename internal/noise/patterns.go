package noise

import "regexp"

// localePatterns groups the noise patterns of one export locale. Exact
// entries are compared case-insensitively against a whole line. System
// patterns must cover the whole message, so a sender merely mentioning an
// event phrase is never dropped.
type localePatterns struct {
	MediaExact  []string
	MediaRegex  []*regexp.Regexp
	SystemExact []string
	SystemRegex []*regexp.Regexp
}

// event compiles a case-insensitive pattern anchored to the whole message.
func event(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + pattern + `)$`)
}

// banner matches a notice that starts with phrase, optionally followed by
// further sentences of the same notice.
func banner(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(phrase) + `(?:[.,。，].*)?$`)
}

var locales = map[string]localePatterns{
	"en": {
		MediaExact: []string{
			"<media omitted>", "<attachment omitted>", "image omitted", "video omitted", "audio omitted",
			"sticker omitted", "gif omitted", "document omitted", "contact card omitted", "voice message omitted",
			"sent an attachment.", "you sent an attachment.", "sent a photo.", "sent a video.", "sent a voice message.",
		},
		MediaRegex: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^<attached: [^>]+>$`),
			regexp.MustCompile(`(?i)^\S.* \(file attached\)$`),
			regexp.MustCompile(`(?i)^\S.* document omitted$`),
		},
		SystemExact: []string{
			"this message was deleted", "you deleted this message", "waiting for this message",
			"null", "message deleted",
		},
		SystemRegex: []*regexp.Regexp{
			banner("messages and calls are end-to-end encrypted"),
			event(`(?:.+ )?created group ".+"`),
			event(`.+ created this group`),
			event(`.+ changed the subject (?:from ".*" )?to ".+"`),
			event(`.+ changed this group['’]s icon`),
			event(`.+ deleted this group['’]s icon`),
			event(`.+ changed the group description`),
			event(`.+ joined using this group['’]s invite link(?: \S+)?`),
			event(`missed (?:group )?(?:voice|video) call(?:, tap to call back)?`),
			event(`(?:your )?security code (?:with .+ )?changed\.?(?: tap to learn more\.?)?`),
			event(`.+ changed their phone number(?: to a new number)?\.?(?: tap to message or add the new number\.?)?`),
			event(`.+ turned (?:on|off) disappearing messages\.?(?: new messages will disappear .*)?`),
			event(`(?:.+ is|you['’]re) now an admin`),
			event(`(?:.+ )?liked a message`),
			event(`(?:.+ )?reacted .+ to your message`),
			event(`(?:.+ )?started a video chat`),
			event(`(?:.+ )?started an audio call`),
		},
	},
	"es": {
		MediaExact: []string{
			"<multimedia omitido>", "imagen omitida", "video omitido", "audio omitido", "sticker omitido",
			"gif omitido", "documento omitido",
		},
		SystemExact: []string{"se eliminó este mensaje", "eliminaste este mensaje"},
		SystemRegex: []*regexp.Regexp{
			banner("los mensajes y las llamadas están cifrados de extremo a extremo"),
			event(`llamada de voz perdida`),
			event(`videollamada perdida`),
			event(`(?:.+ )?creó el grupo ".+"`),
			event(`.+ cambió el asunto (?:de ".*" )?a ".+"`),
			event(`.+ se unió usando el enlace de invitación de este grupo`),
		},
	},
	"pt": {
		MediaExact: []string{
			"<mídia oculta>", "<arquivo de mídia oculto>", "imagem ocultada", "vídeo omitido", "áudio ocultado",
			"figurinha omitida", "documento omitido",
		},
		SystemExact: []string{"essa mensagem foi apagada", "mensagem apagada", "você apagou esta mensagem"},
		SystemRegex: []*regexp.Regexp{
			banner("as mensagens e as chamadas são protegidas com a criptografia de ponta a ponta"),
			event(`chamada de voz perdida`),
			event(`chamada de vídeo perdida`),
			event(`(?:.+ )?criou o grupo ".+"`),
			event(`.+ mudou o assunto (?:de ".*" )?para ".+"`),
		},
	},
	"fr": {
		MediaExact: []string{
			"<médias omis>", "image absente", "vidéo absente", "audio omis", "sticker omis", "gif retiré",
			"document omis",
		},
		SystemExact: []string{"ce message a été supprimé", "vous avez supprimé ce message"},
		SystemRegex: []*regexp.Regexp{
			banner("les messages et les appels sont chiffrés de bout en bout"),
			event(`appel vocal manqué`),
			event(`appel vidéo manqué`),
			event(`(?:.+ )?a créé le groupe [«"].+[»"]`),
			event(`.+ a modifié le sujet (?:de )?[«"].*[»"]`),
		},
	},
	"de": {
		MediaExact: []string{
			"<medien ausgeschlossen>", "bild weggelassen", "video weggelassen", "audio weggelassen",
			"sticker weggelassen", "gif weggelassen", "dokument weggelassen",
		},
		SystemExact: []string{"diese nachricht wurde gelöscht", "du hast diese nachricht gelöscht"},
		SystemRegex: []*regexp.Regexp{
			banner("nachrichten und anrufe sind ende-zu-ende-verschlüsselt"),
			event(`verpasster sprachanruf`),
			event(`verpasster videoanruf`),
			event(`.+ hat die gruppe [„"].+[“"] erstellt`),
			event(`.+ hat die gruppe verlassen`),
			event(`.+ hat den betreff (?:von [„"].*[“"] )?zu [„"].+[“"] geändert`),
		},
	},
	"it": {
		MediaExact: []string{
			"<media omessi>", "immagine omessa", "video omesso", "audio omesso", "sticker omesso",
			"gif omessa", "documento omesso",
		},
		SystemExact: []string{"questo messaggio è stato eliminato", "hai eliminato questo messaggio"},
		SystemRegex: []*regexp.Regexp{
			banner("i messaggi e le chiamate sono crittografati end-to-end"),
			event(`chiamata vocale persa`),
			event(`videochiamata persa`),
			event(`(?:.+ )?ha creato il gruppo ".+"`),
		},
	},
	"nl": {
		MediaExact:  []string{"<media weggelaten>", "afbeelding weggelaten", "video weggelaten", "audio weggelaten", "sticker weggelaten"},
		SystemExact: []string{"dit bericht is verwijderd", "je hebt dit bericht verwijderd"},
		SystemRegex: []*regexp.Regexp{
			banner("berichten en oproepen zijn end-to-end versleuteld"),
			event(`gemiste spraakoproep`),
			event(`gemiste video-oproep`),
		},
	},
	"zh": {
		MediaExact: []string{
			"<省略影音内容>", "<媒体文件已省略>", "<媒体已忽略>", "图片已省略", "视频已省略", "音频已省略",
			"贴图已省略", "文件已省略", "[图片]", "[语音]", "[视频]", "[动画表情]",
		},
		SystemExact: []string{"此消息已删除", "你删除了此消息", "此訊息已刪除"},
		SystemRegex: []*regexp.Regexp{
			banner("消息和通话都进行端到端加密"),
			banner("訊息和通話都會經過端對端加密"),
			event(`未接语音通话`),
			event(`未接视频通话`),
			event(`.*创建了群组\s?[「"“].+[」"”]`),
			event(`.+撤回了一条消息`),
		},
	},
	"ja": {
		MediaExact:  []string{"<メディアなし>", "画像を省略", "動画を省略", "音声を省略", "ステッカーを省略"},
		SystemExact: []string{"このメッセージは削除されました", "メッセージを削除しました"},
		SystemRegex: []*regexp.Regexp{
			banner("メッセージと通話はエンドツーエンドで暗号化されています"),
			event(`不在着信(?:[（(].+[)）])?`),
		},
	},
	"ru": {
		MediaExact:  []string{"<без медиафайлов>", "изображение отсутствует", "видео отсутствует", "аудиофайл отсутствует", "стикер отсутствует"},
		SystemExact: []string{"данное сообщение удалено", "вы удалили данное сообщение"},
		SystemRegex: []*regexp.Regexp{
			banner("сообщения и звонки защищены сквозным шифрованием"),
			event(`пропущенный аудиозвонок`),
			event(`пропущенный видеозвонок`),
		},
	},
	"tr": {
		MediaExact:  []string{"<medya dahil edilmedi>", "görüntü dahil edilmedi", "video dahil edilmedi", "ses dahil edilmedi"},
		SystemExact: []string{"bu mesaj silindi", "bu mesajı sildiniz"},
		SystemRegex: []*regexp.Regexp{
			banner("mesajlar ve aramalar uçtan uca şifrelidir"),
			event(`cevapsız sesli arama`),
			event(`cevapsız görüntülü arama`),
		},
	},
	"id": {
		MediaExact:  []string{"<media tidak disertakan>", "gambar tidak disertakan", "video tidak disertakan", "audio tidak disertakan"},
		SystemExact: []string{"pesan ini telah dihapus", "anda menghapus pesan ini"},
		SystemRegex: []*regexp.Regexp{
			banner("pesan dan panggilan terenkripsi secara end-to-end"),
			event(`panggilan suara tak terjawab`),
			event(`panggilan video tak terjawab`),
		},
	},
}

var linkOnly = regexp.MustCompile(`(?i)^(?:\s*(?:https?://|www\.)\S+)+\s*$`)
