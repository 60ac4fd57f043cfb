// Package makemkv drives makemkvcon and decodes its --robot status stream.
//
// The message and attribute tables below come from observing makemkvcon
// output and from the apdefs.h header shipped with the open portions of the
// MakeMKV source.
package makemkv

import "fmt"

// Robot output tags. The tag before the first colon selects the decode rule.
const (
	TagPRGV   = "PRGV"
	TagDRV    = "DRV"
	TagMSG    = "MSG"
	TagPRGC   = "PRGC"
	TagPRGT   = "PRGT"
	TagCINFO  = "CINFO"
	TagTINFO  = "TINFO"
	TagSINFO  = "SINFO"
	TagTCOUNT = "TCOUNT"
)

// MsgCode identifies one MSG/PRGC/PRGT message code.
type MsgCode int

const (
	CodeItemInfo                    MsgCode = 0
	CodeLibmkvTrace                 MsgCode = 1002
	CodeMakeMKVVersion              MsgCode = 1005
	CodeUsingLibredriveMode         MsgCode = 1011
	CodeUDFNodeFailed               MsgCode = 1012
	CodeSCSIError                   MsgCode = 2003
	CodeReadFasterThanWrite         MsgCode = 2008
	CodeHashCheckError              MsgCode = 2023
	CodeBadBackupOffset             MsgCode = 3002
	CodeUsingDirectAccessMode       MsgCode = 3007
	CodeTitleSkip                   MsgCode = 3025
	CodeTitleDVDAdded               MsgCode = 3028
	CodeCellsRemoved                MsgCode = 3037
	CodeTitleEndCellsRemoved        MsgCode = 3038
	CodeOpeningDVDDisc              MsgCode = 3100
	CodeProcessingTitleSets         MsgCode = 3102
	CodeProcessingTitles            MsgCode = 3103
	CodeDecryptingDVDData           MsgCode = 3104
	CodeScanningContents            MsgCode = 3120
	CodeTitleBDAdded                MsgCode = 3307
	CodeDuplicateTitleSkipped       MsgCode = 3309
	CodeUsingJavaRuntime            MsgCode = 3344
	CodeProcessingAVClips           MsgCode = 3400
	CodeProcessingMoviePlaylists    MsgCode = 3401
	CodeDecryptingBDData            MsgCode = 3402
	CodeOpeningBluRayDisc           MsgCode = 3404
	CodeProcessingBDPlusCode        MsgCode = 3406
	CodeCorruptSourceFile           MsgCode = 4004
	CodeTitleAVSyncIssue            MsgCode = 4007
	CodeStreamAVSyncIssue           MsgCode = 4008
	CodeTooManyAVSyncIssues         MsgCode = 4009
	CodeTrackAVSyncIssue            MsgCode = 4047
	CodeAskOverwriteFile            MsgCode = 5001
	CodeTitleSaveFail               MsgCode = 5003
	CodeTitlesSaveFail              MsgCode = 5004
	CodeEvent                       MsgCode = 5005
	CodeDiscOpenFail                MsgCode = 5010
	CodeOperationComplete           MsgCode = 5011
	CodeSavingInDir                 MsgCode = 5014
	CodeSavingToMKVFile             MsgCode = 5017
	CodeScanningCDROMDevices        MsgCode = 5018
	CodeSavingTitlesToMKVFiles      MsgCode = 5024
	CodeCopyComplete                MsgCode = 5036
	CodeCopyCompleteTitlesFailed    MsgCode = 5037
	CodeEvalPeriodExpired           MsgCode = 5051
	CodeEvalExpiredFreeFuncOnly     MsgCode = 5052
	CodeEvalExpiredXDaysAgo         MsgCode = 5054
	CodeEvalExpiredNoShareFunc      MsgCode = 5055
	CodeAnalyzingSeamlessSegments   MsgCode = 5057
	CodeHashCheckFailure            MsgCode = 5076
	CodeTooManyHashCheckFailures    MsgCode = 5077
	CodeLoadedContentHashTable      MsgCode = 5085
	CodeLosslessConversion          MsgCode = 5088
	CodeAudioStereo                 MsgCode = 5091
	CodeAudioSurround               MsgCode = 5092
	CodeItemInfoSource              MsgCode = 6119
	CodeItemInfoTitle               MsgCode = 6120
	CodeItemInfoTrack               MsgCode = 6121
	CodeTrackVideo                  MsgCode = 6201
	CodeTrackAudio                  MsgCode = 6202
	CodeTrackSubtitles              MsgCode = 6203
	CodeTypeDVD                     MsgCode = 6206
	CodeTypeBD                      MsgCode = 6209
	CodeTypeHDDVD                   MsgCode = 6212
)

var msgCodeNames = map[MsgCode]string{
	CodeItemInfo:                  "item_info",
	CodeLibmkvTrace:               "libmkv_trace",
	CodeMakeMKVVersion:            "makemkv_version",
	CodeUsingLibredriveMode:       "using_libredrive_mode",
	CodeUDFNodeFailed:             "udf_node_failed",
	CodeSCSIError:                 "scsi_error",
	CodeReadFasterThanWrite:       "read_faster_than_write",
	CodeHashCheckError:            "hash_check_error",
	CodeBadBackupOffset:           "bad_backup_offset",
	CodeUsingDirectAccessMode:     "using_direct_access_mode",
	CodeTitleSkip:                 "title_skip",
	CodeTitleDVDAdded:             "title_dvd_added",
	CodeCellsRemoved:              "cells_removed",
	CodeTitleEndCellsRemoved:      "title_end_cells_removed",
	CodeOpeningDVDDisc:            "opening_dvd_disc",
	CodeProcessingTitleSets:       "processing_title_sets",
	CodeProcessingTitles:          "processing_titles",
	CodeDecryptingDVDData:         "decrypting_dvd_data",
	CodeScanningContents:          "scanning_contents",
	CodeTitleBDAdded:              "title_bd_added",
	CodeDuplicateTitleSkipped:     "duplicate_title_skipped",
	CodeUsingJavaRuntime:          "using_java_runtime",
	CodeProcessingAVClips:         "processing_av_clips",
	CodeProcessingMoviePlaylists:  "processing_movie_playlists",
	CodeDecryptingBDData:          "decrypting_bd_data",
	CodeOpeningBluRayDisc:         "opening_bluray_disc",
	CodeProcessingBDPlusCode:      "processing_bd_plus_code",
	CodeCorruptSourceFile:         "corrupt_source_file",
	CodeTitleAVSyncIssue:          "title_av_sync_issue",
	CodeStreamAVSyncIssue:         "stream_av_sync_issue",
	CodeTooManyAVSyncIssues:       "too_many_av_sync_issues",
	CodeTrackAVSyncIssue:          "track_av_sync_issue",
	CodeAskOverwriteFile:          "ask_overwrite_file",
	CodeTitleSaveFail:             "title_save_fail",
	CodeTitlesSaveFail:            "titles_save_fail",
	CodeEvent:                     "event",
	CodeDiscOpenFail:              "disc_open_fail",
	CodeOperationComplete:         "operation_complete",
	CodeSavingInDir:               "saving_in_dir",
	CodeSavingToMKVFile:           "saving_to_mkv_file",
	CodeScanningCDROMDevices:      "scanning_cdrom_devices",
	CodeSavingTitlesToMKVFiles:    "saving_titles_to_mkv_files",
	CodeCopyComplete:              "copy_complete",
	CodeCopyCompleteTitlesFailed:  "copy_complete_titles_failed",
	CodeEvalPeriodExpired:         "evaluation_period_expired",
	CodeEvalExpiredFreeFuncOnly:   "evaluation_period_expired_free_func_only",
	CodeEvalExpiredXDaysAgo:       "evaluation_period_expired_x_days_ago",
	CodeEvalExpiredNoShareFunc:    "evaluation_period_expired_no_share_func",
	CodeAnalyzingSeamlessSegments: "analyzing_seamless_segments",
	CodeHashCheckFailure:          "hash_check_failure",
	CodeTooManyHashCheckFailures:  "too_many_hash_check_failures",
	CodeLoadedContentHashTable:    "loaded_content_hash_table",
	CodeLosslessConversion:        "lossless_conversion",
	CodeAudioStereo:               "audio_stereo",
	CodeAudioSurround:             "audio_surround",
	CodeItemInfoSource:            "item_info_source",
	CodeItemInfoTitle:             "item_info_title",
	CodeItemInfoTrack:             "item_info_track",
	CodeTrackVideo:                "track_video",
	CodeTrackAudio:                "track_audio",
	CodeTrackSubtitles:            "track_subtitles",
	CodeTypeDVD:                   "type_dvd",
	CodeTypeBD:                    "type_bd",
	CodeTypeHDDVD:                 "type_hddvd",
}

// String returns the snake_case label for a known code, or the numeric
// fallback for an unknown one.
func (c MsgCode) String() string {
	if name, ok := msgCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Known reports whether the code belongs to the closed enumeration.
func (c MsgCode) Known() bool {
	_, ok := msgCodeNames[c]
	return ok
}

// errorCodes increment the session error counter: each generally indicates
// the running makemkvcon command has failed or may fail soon.
var errorCodes = map[MsgCode]struct{}{
	CodeLibmkvTrace:              {},
	CodeUDFNodeFailed:            {},
	CodeSCSIError:                {},
	CodeHashCheckError:           {},
	CodeCorruptSourceFile:        {},
	CodeTooManyAVSyncIssues:      {},
	CodeTitleSaveFail:            {},
	CodeTitlesSaveFail:           {},
	CodeDiscOpenFail:             {},
	CodeCopyCompleteTitlesFailed: {},
	CodeEvalExpiredFreeFuncOnly:  {},
	CodeEvalExpiredNoShareFunc:   {},
	CodeHashCheckFailure:         {},
	CodeTooManyHashCheckFailures: {},
}

// successCodes increment the success counter and reset the error counter.
var successCodes = map[MsgCode]struct{}{
	CodeOperationComplete: {},
}

// uiFlags is the closed set of MSG flag values observed in robot output.
// The values are exact message classifications, not a bitmask.
var uiFlags = map[int]struct{}{
	0:        {}, // yes
	1:        {}, // no
	16:       {}, // stream a/v sync issue
	32:       {}, // debug
	64:       {}, // hidden
	128:      {}, // event
	260:      {}, // box ok
	516:      {}, // box error
	776:      {}, // box yes/no
	1028:     {}, // box warning
	1288:     {}, // box yes/no err
	1544:     {}, // box yes/no reg
	3854:     {}, // box mask
	5200:     {}, // vt item base
	131072:   {}, // have url
	131088:   {}, // file a/v sync issues
	16777216: {}, // title skip min length
	16908288: {}, // read errors
}

// discFlags is the closed set of DRV disc-type flag values.
var discFlags = map[int]struct{}{
	0:  {}, // unknown
	1:  {}, // dvd
	2:  {}, // hd-dvd
	4:  {}, // bd
	8:  {}, // aacs
	16: {}, // bdsvm
}

// driveStates is the closed set of DRV visibility values.
var driveStates = map[int]struct{}{
	0:   {}, // empty, closed
	1:   {}, // empty, open
	2:   {}, // inserted
	3:   {}, // loading
	256: {}, // no drive
	257: {}, // unmounting
}

// AttrID identifies one CINFO/TINFO/SINFO attribute.
type AttrID int

const (
	AttrUnknown                      AttrID = 0
	AttrType                         AttrID = 1
	AttrName                         AttrID = 2
	AttrLangCode                     AttrID = 3
	AttrLangName                     AttrID = 4
	AttrCodecID                      AttrID = 5
	AttrCodecShort                   AttrID = 6
	AttrCodecLong                    AttrID = 7
	AttrChapterCount                 AttrID = 8
	AttrDuration                     AttrID = 9
	AttrDiskSize                     AttrID = 10
	AttrDiskSizeBytes                AttrID = 11
	AttrStreamTypeExtension          AttrID = 12
	AttrBitrate                      AttrID = 13
	AttrAudioChannelsCount           AttrID = 14
	AttrAngleInfo                    AttrID = 15
	AttrSourceFileName               AttrID = 16
	AttrAudioSampleRate              AttrID = 17
	AttrAudioSampleSize              AttrID = 18
	AttrVideoSize                    AttrID = 19
	AttrVideoAspectRatio             AttrID = 20
	AttrVideoFrameRate               AttrID = 21
	AttrStreamFlags                  AttrID = 22
	AttrDateTime                     AttrID = 23
	AttrOriginalTitleID              AttrID = 24
	AttrSegmentsCount                AttrID = 25
	AttrSegmentsMap                  AttrID = 26
	AttrOutputFileName               AttrID = 27
	AttrMetadataLanguageCode         AttrID = 28
	AttrMetadataLanguageName         AttrID = 29
	AttrTreeInfo                     AttrID = 30
	AttrPanelTitle                   AttrID = 31
	AttrVolumeName                   AttrID = 32
	AttrOrderWeight                  AttrID = 33
	AttrOutputFormat                 AttrID = 34
	AttrOutputFormatDescription      AttrID = 35
	AttrSeamlessInfo                 AttrID = 36
	AttrPanelText                    AttrID = 37
	AttrMkvFlags                     AttrID = 38
	AttrMkvFlagsText                 AttrID = 39
	AttrAudioChannelLayoutName       AttrID = 40
	AttrOutputCodecShort             AttrID = 41
	AttrOutputConversionType         AttrID = 42
	AttrOutputAudioSampleRate        AttrID = 43
	AttrOutputAudioSampleSize        AttrID = 44
	AttrOutputAudioChannelsCount     AttrID = 45
	AttrOutputAudioChannelLayoutName AttrID = 46
	AttrOutputAudioChannelLayout     AttrID = 47
	AttrOutputAudioMixDescription    AttrID = 48
	AttrComment                      AttrID = 49
	AttrOffsetSequenceID             AttrID = 50
)

// maxAttrID bounds the closed attribute enumeration.
const maxAttrID = AttrOffsetSequenceID

// Known reports whether the attribute id belongs to the closed enumeration.
func (a AttrID) Known() bool {
	return a >= AttrUnknown && a <= maxAttrID
}

// intAttrs lists attributes whose values decode as integers.
var intAttrs = map[AttrID]struct{}{
	AttrOrderWeight:        {},
	AttrChapterCount:       {},
	AttrDiskSizeBytes:      {},
	AttrSegmentsCount:      {},
	AttrStreamFlags:        {},
	AttrAudioChannelsCount: {},
	AttrAudioSampleRate:    {},
	AttrAudioSampleSize:    {},
}
